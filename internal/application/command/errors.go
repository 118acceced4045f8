// Package command contains write operations (CQRS - Commands).
//
// Every command checks the caller's role before touching the store, validates
// its input, and reports store failures as a visible error. None of them
// degrade silently.
package command

import (
	"context"
	"errors"

	"github.com/scholarhub/scholarship-review/internal/domain/shared"
)

// storeError classifies an error coming back from the application store.
// Domain kinds pass through; anything else becomes StoreUnavailable.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case shared.IsNotFound(err),
		shared.IsAlreadyExists(err),
		shared.IsValidation(err),
		shared.IsStateTransition(err),
		shared.IsUnavailable(err):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return shared.WrapError("store", op, shared.ErrTimeout, "application store timed out", err)
	}
	return shared.WrapError("store", op, shared.ErrServiceUnavailable, "application store call failed", err)
}
