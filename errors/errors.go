package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/c360/streambuf/pkg/retry"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary errors that may be retried
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input or configuration
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that should stop processing
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables
var (
	// ErrOverflow reports an add that a full buffer rejected
	ErrOverflow = errors.New("buffer overflow")
	// ErrUnderflow reports a take from an empty buffer
	ErrUnderflow = errors.New("buffer underflow")

	ErrInvalidConfig = errors.New("invalid configuration")

	ErrResourceExhausted  = errors.New("resource exhausted")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
)

// sentinelClasses is consulted in order; the first errors.Is match wins.
var sentinelClasses = []struct {
	err   error
	class ErrorClass
}{
	{ErrOverflow, ErrorTransient},
	{ErrUnderflow, ErrorTransient},
	{context.DeadlineExceeded, ErrorTransient},
	{context.Canceled, ErrorTransient},
	{ErrResourceExhausted, ErrorFatal},
	{ErrMaxRetriesExceeded, ErrorFatal},
	{ErrInvalidConfig, ErrorInvalid},
}

// messageClasses classifies foreign errors by lower-cased message substring.
var messageClasses = []struct {
	pattern string
	class   ErrorClass
}{
	{"timeout", ErrorTransient},
	{"timed out", ErrorTransient},
	{"temporary", ErrorTransient},
	{"unavailable", ErrorTransient},
	{"busy", ErrorTransient},
	{"retry", ErrorTransient},
	{"fatal", ErrorFatal},
	{"panic", ErrorFatal},
	{"out of memory", ErrorFatal},
}

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// classOf resolves the class of a non-nil error. known is false when
// nothing in the chain or the message identified it.
func classOf(err error) (class ErrorClass, known bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class, true
	}

	for _, s := range sentinelClasses {
		if errors.Is(err, s.err) {
			return s.class, true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, m := range messageClasses {
		if strings.Contains(msg, m.pattern) {
			return m.class, true
		}
	}

	return ErrorTransient, false
}

func is(err error, want ErrorClass) bool {
	if err == nil {
		return false
	}
	class, known := classOf(err)
	return known && class == want
}

// IsTransient reports whether err is known to be temporary. Overflow and
// underflow are transient: another goroutine draining or filling the
// buffer resolves them.
func IsTransient(err error) bool {
	return is(err, ErrorTransient)
}

// IsFatal reports whether err is known to be unrecoverable
func IsFatal(err error) bool {
	return is(err, ErrorFatal)
}

// IsInvalid reports whether err stems from invalid input or configuration
func IsInvalid(err error) bool {
	return is(err, ErrorInvalid)
}

// Classify returns the error class for an error. Unrecognized errors, and
// nil, are transient so callers may retry them.
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorTransient
	}
	class, _ := classOf(err)
	return class
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

func wrapAs(class ErrorClass, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return &ClassifiedError{
		Class:     class,
		Err:       wrapped,
		Message:   wrapped.Error(),
		Component: component,
		Operation: method,
	}
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	return wrapAs(ErrorTransient, err, component, method, action)
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	return wrapAs(ErrorFatal, err, component, method, action)
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	return wrapAs(ErrorInvalid, err, component, method, action)
}

// RetryConfig is a caller-side retry policy for rejected buffer operations.
// Buffers never retry on their own.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64

	// RetryableErrors narrows retries to these errors. Empty retries every
	// transient error.
	RetryableErrors []error
}

// DefaultRetryConfig returns the policy for riding out brief backpressure
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  10 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}
}

// ShouldRetry reports whether attempt (0-based count of retries so far)
// may be followed by another after err.
func (rc RetryConfig) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= rc.MaxRetries {
		return false
	}
	return rc.retryable(err)
}

func (rc RetryConfig) retryable(err error) bool {
	if !IsTransient(err) {
		return false
	}
	if len(rc.RetryableErrors) == 0 {
		return true
	}
	for _, target := range rc.RetryableErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ToRetryConfig converts the policy for retry.Do. MaxRetries counts
// additional attempts, so the total is one more.
func (rc RetryConfig) ToRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  rc.MaxRetries + 1,
		InitialDelay: rc.InitialDelay,
		MaxDelay:     rc.MaxDelay,
		Multiplier:   rc.BackoffFactor,
		AddJitter:    true,
		Retryable:    rc.retryable,
	}
}
