// Package errors provides error classification and wrapping for streambuf.
//
// # Classification
//
// Errors fall into three classes that drive caller behaviour:
//
//   - Transient: the condition may clear on its own (buffer overflow or
//     underflow, a wait that timed out, a cancelled context). Retry with
//     backoff.
//   - Invalid: the input or configuration is wrong. Retrying will not help.
//   - Fatal: the process cannot continue (resource exhaustion, retries
//     exhausted).
//
// Classification checks, in order, an explicit *ClassifiedError in the
// chain, the standard sentinels, and finally a small set of message
// patterns for foreign errors.
//
// # Wrapping
//
// Wrap produces the standard "component.method: action failed: cause"
// message and keeps the cause reachable through errors.Is. The classified
// variants attach a class as well:
//
//	if r.size() == r.capacity {
//	    return errors.WrapTransient(ErrOverflow, "BoundedRingStore", "Add", "append")
//	}
//
//	if maxSize <= 0 {
//	    return nil, errors.WrapInvalid(ErrInvalidConfig, "BoundedRingStore", "New",
//	        fmt.Sprintf("validate maxSize %d", maxSize))
//	}
//
// # Standard errors
//
//   - Buffer flow: ErrOverflow, ErrUnderflow (transient)
//   - Configuration: ErrInvalidConfig (invalid)
//   - Exhaustion: ErrResourceExhausted, ErrMaxRetriesExceeded (fatal)
//
// pkg/buffer re-exports the buffer flow and configuration sentinels, so
// errors.Is(err, buffer.ErrOverflow) and errors.Is(err, errors.ErrOverflow)
// are equivalent.
//
// # Retry
//
// Buffers never retry internally. RetryConfig describes a caller-side
// policy and converts to a retry.Config for use with retry.Do:
//
//	policy := errors.DefaultRetryConfig()
//	err := retry.Do(ctx, policy.ToRetryConfig(), func() error {
//	    return queue.TryAdd(item)
//	})
//
// Only errors the policy considers retryable are retried; anything else is
// returned from retry.Do immediately.
package errors
