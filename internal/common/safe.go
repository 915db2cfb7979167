package common

import (
	"fmt"
	"runtime"

	"github.com/ternarybob/arbor"
)

// PanicError wraps a value recovered from a panic.
type PanicError struct {
	Name  string
	Value interface{}
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Name, e.Value)
}

// SafeCall runs fn and converts a panic into a *PanicError.
func SafeCall(logger arbor.ILogger, name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			stack := string(buf[:n])

			if logger != nil {
				logger.Error().
					Str("call", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", stack).
					Msg("Recovered from panic")
			}
			err = &PanicError{Name: name, Value: r, Stack: stack}
		}
	}()

	return fn()
}
