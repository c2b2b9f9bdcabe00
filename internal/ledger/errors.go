package ledger

import (
	"errors"
	"fmt"
)

// ErrUnavailable matches every UnavailableError.
var ErrUnavailable = errors.New("ledger unavailable")

// GenericMutationMessage is shown when the backend rejects a write without
// saying why.
const GenericMutationMessage = "the ledger rejected the change"

// UnavailableError reports a failed listing: the request never completed or
// the backend answered with a non-2xx status. Callers treat it as a
// recoverable "no data" state.
type UnavailableError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UnavailableError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: ledger returned status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: ledger returned status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": ledger unavailable"
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

// MutationError reports a write the backend refused or could not complete.
// Message is user-facing: the backend's own error text when it sent one.
type MutationError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *MutationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = GenericMutationMessage
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *MutationError) Unwrap() error { return e.Err }

// UserMessage returns the text to show for a failed mutation.
func UserMessage(err error) string {
	var me *MutationError
	if errors.As(err, &me) && me.Message != "" {
		return me.Message
	}
	return GenericMutationMessage
}
