package sheaf

import (
	"fmt"

	"github.com/go-sheaf/sheaf/internal/util"
)

// safeCall invokes a user-supplied operation such that panics are recovered
// and nice error messages are constructed. op names the operation for the
// error message.
func safeCall[T any](op string, f func() T) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			if anErr, ok := r.(error); ok {
				err = fmt.Errorf("%s Panic: %w\n%s", op, anErr, util.GetTrace())
			} else {
				err = fmt.Errorf("%s Panic: %v\n%s", op, r, util.GetTrace())
			}
		}
	}()
	out = f()
	return
}

// safeEmit invokes an EmitOperation such that both returned errors and panics
// are surfaced as errors.
func safeEmit[A, B any](emitter EmitOperation[A, B], v A, s Sink[B]) error {
	res, err := safeCall("Emit", func() error {
		return emitter(v, s)
	})
	if err != nil {
		return err
	}
	if res != nil {
		return fmt.Errorf("Emit Error: %w", res)
	}
	return nil
}
