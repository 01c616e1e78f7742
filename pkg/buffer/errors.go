package buffer

import (
	stderrors "errors"
	"fmt"

	"github.com/c360/streambuf/errors"
)

// Standard buffer errors. ErrOverflow, ErrUnderflow and ErrInvalidConfig are
// the errors package sentinels, so either name matches with errors.Is.
var (
	// ErrUnderflow reports Get or Remove on an empty buffer that no wait policy resolved.
	ErrUnderflow = errors.ErrUnderflow

	// ErrOverflow reports Add or AddAll on a full buffer that no wait policy resolved,
	// or a batch that can never fit.
	ErrOverflow = errors.ErrOverflow

	// ErrInvalidConfig reports a non-positive capacity, a negative timeout or a nil
	// inner buffer.
	ErrInvalidConfig = errors.ErrInvalidConfig

	// ErrTimeout is joined into Overflow/Underflow when a wait reached its deadline.
	ErrTimeout = stderrors.New("buffer wait timed out")

	// ErrConcurrentModification is reported by an iterator whose buffer was
	// changed other than through the iterator.
	ErrConcurrentModification = stderrors.New("buffer modified during iteration")

	// ErrIteratorState is returned by Iterator.Remove without a current element.
	ErrIteratorState = stderrors.New("iterator has no current element")
)

func overflowError(component, method string) error {
	return errors.WrapTransient(ErrOverflow, component, method, "add")
}

func underflowError(component, method string) error {
	return errors.WrapTransient(ErrUnderflow, component, method, "take")
}

// waitError keeps the flow sentinel first in the chain and joins the reason
// the wait ended (ErrTimeout or the context error).
func waitError(sentinel, cause error, component, method string) error {
	return errors.WrapTransient(fmt.Errorf("%w: %w", sentinel, cause), component, method, "wait")
}

func invalidConfig(component, format string, args ...any) error {
	return errors.WrapInvalid(ErrInvalidConfig, component, "New", fmt.Sprintf(format, args...))
}

func iteratorModified(component string) error {
	return errors.WrapInvalid(ErrConcurrentModification, component, "Iterator", "advance")
}

func iteratorState(component string) error {
	return errors.WrapInvalid(ErrIteratorState, component, "Iterator", "remove")
}
