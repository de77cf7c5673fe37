package remote

import (
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

const (
	rowRecord   = "row"
	errorRecord = "error"
)

var ErrBadRecord = errors.New("incorrect record")

// record is one item of the output stream of the runner.
type record struct {
	Kind    string    `msgpack:"kind"`
	Row     model.Row `msgpack:"row,omitempty"`
	Message string    `msgpack:"message,omitempty"`
	Label   string    `msgpack:"label,omitempty"`
}

// value returns the model.Row or the *model.Error carried by r.
func (r *record) value() (any, error) {
	switch r.Kind {
	case rowRecord:
		if r.Row == nil {
			return model.Row{}, nil
		}

		return r.Row, nil
	case errorRecord:
		rowErr := model.NewError(r.Message, nil)
		if r.Label != "" {
			rowErr = rowErr.WithLabel(r.Label)
		}

		return rowErr, nil
	default:
		return nil, errors.Wrapf(ErrBadRecord, "unknown kind %q", r.Kind)
	}
}

func newDecoder(r io.Reader) *msgpack.Decoder {
	dec := msgpack.NewDecoder(r)
	// integers decode as int64 whatever their encoded size.
	dec.UseLooseInterfaceDecoding(true)

	return dec
}

// recordWriter encodes records on the output stream of the runner.
type recordWriter struct {
	mu  sync.Mutex
	enc *msgpack.Encoder
}

func newRecordWriter(w io.Writer) *recordWriter {
	return &recordWriter{enc: msgpack.NewEncoder(w)}
}

func (w *recordWriter) writeRow(row model.Row) error {
	return w.write(&record{Kind: rowRecord, Row: row})
}

func (w *recordWriter) writeError(rowErr *model.Error) error {
	message := rowErr.Message
	if rowErr.Cause() != nil {
		message += ": " + rowErr.Cause().Error()
	}

	return w.write(&record{Kind: errorRecord, Message: message, Label: rowErr.Label})
}

func (w *recordWriter) write(r *record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return errors.Wrap(w.enc.Encode(r), "unable to write record")
}
