package exception

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// FromPanic turns a recovered panic value into an error Translate understands.
func FromPanic(rec any) error {
	switch v := rec.(type) {
	case runtime.Error:
		if strings.Contains(v.Error(), "nil pointer") || strings.Contains(v.Error(), "nil map") {
			return &NullPointerError{Value: v}
		}
		return v
	case error:
		return v
	case string:
		return errors.New(v)
	}
	return fmt.Errorf("panic: %v", rec)
}
