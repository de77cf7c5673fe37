// Package op contains the operators of the shell, and the registry building
// them from their names and text arguments.
package op
