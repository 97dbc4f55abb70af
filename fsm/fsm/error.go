package fsm

import (
	"encoding/json"
	"fmt"
)

// Level of the machine error
type Level uint32

const (
	InfoLevel Level = iota
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return "undefined level"
	}
}

// FsmError is returned for rejected transitions, callback errors are passed through as is
type FsmError struct {
	level   Level
	message string
}

func (e *FsmError) Error() string {
	return e.level.String() + ": " + e.message
}

func (e *FsmError) Level() Level {
	return e.level
}

func (e *FsmError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Level   string `json:"level"`
		Message string `json:"message"`
	}{
		Level:   e.level.String(),
		Message: e.message,
	})
}

func NewErr(level Level, message string) *FsmError {
	return &FsmError{
		level:   level,
		message: message,
	}
}

func NewErrf(level Level, format string, values ...interface{}) *FsmError {
	if len(values) == 0 {
		return NewErr(level, format)
	}
	return NewErr(level, fmt.Sprintf(format, values...))
}
