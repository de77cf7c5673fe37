package op

import (
	"time"

	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

func TimerRow(t *Timer, tick time.Time) model.Row {
	return t.row(tick)
}
