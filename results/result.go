package results

import (
	"encoding/json"
)

// status holds the two orthogonal bits of a Result.
type status uint8

const (
	statusSucceeded status = 1 << iota
	statusHasValue
)

// Result is the outcome of a unit of work. It replaces panics and Go errors for failures that are
// expected to happen while serving requests. The untyped form is Result[any].
type Result[T any] struct {
	value  T
	errors []Error
	status status
}

// Success returns a succeeded result without a value.
func Success[T any]() Result[T] {
	return Result[T]{status: statusSucceeded}
}

// SuccessValue returns a succeeded result carrying v.
func SuccessValue[T any](v T) Result[T] {
	return Result[T]{value: v, status: statusSucceeded | statusHasValue}
}

// Failure returns a failed result with a single leaf error.
func Failure[T any](msg string) Result[T] {
	return Result[T]{errors: []Error{NewError(msg)}}
}

// FailureError returns a failed result with a single error.
func FailureError[T any](err Error) Result[T] {
	return Result[T]{errors: []Error{err}}
}

// Failures returns a failed result with all of errs. Without any errors a default one is used so
// that a failure never has an empty error sequence.
func Failures[T any](errs ...Error) Result[T] {
	return Result[T]{errors: failureErrors(errs)}
}

// FailureValue returns a failed result that still carries a (partial) value, for example to
// render diagnostics.
func FailureValue[T any](v T, errs ...Error) Result[T] {
	return Result[T]{value: v, errors: failureErrors(errs), status: statusHasValue}
}

func failureErrors(errs []Error) []Error {
	if len(errs) == 0 {
		return []Error{{}}
	}

	return append([]Error(nil), errs...)
}

// IsSuccess returns whether the result succeeded.
func (r Result[T]) IsSuccess() bool { return r.status&statusSucceeded != 0 }

// HasValue returns whether a value was supplied, independent of success.
func (r Result[T]) HasValue() bool { return r.status&statusHasValue != 0 }

// Value returns the value, or the zero value of T if there is none.
func (r Result[T]) Value() T { return r.value }

// Errors returns the errors of a failed result. It is empty for succeeded results.
func (r Result[T]) Errors() []Error { return r.errors }

// Err returns the errors as a single Go error, or nil when the result succeeded.
func (r Result[T]) Err() error {
	switch {
	case r.IsSuccess():
		return nil
	case len(r.errors) == 1:
		return r.errors[0]
	default:
		return WrapAll("multiple errors", r.errors...)
	}
}

// Erase converts the result into its untyped form.
func (r Result[T]) Erase() Result[any] {
	ur := Result[any]{errors: r.errors, status: r.status}
	if r.HasValue() {
		ur.value = r.value
	}

	return ur
}

// Typed converts an untyped result back into a typed one. It reports false when the result
// carries a value that is not a T.
func Typed[T any](r Result[any]) (Result[T], bool) {
	tr := Result[T]{errors: r.errors, status: r.status}
	if !r.HasValue() {
		return tr, true
	}

	v, ok := r.value.(T)
	if !ok {
		return Result[T]{}, false
	}
	tr.value = v

	return tr, true
}

type resultJSON struct {
	IsSuccess bool    `json:"isSuccess"`
	Value     any     `json:"value,omitempty"`
	Errors    []Error `json:"errors,omitempty"`
}

// MarshalJSON renders the result for diagnostics. The value is only present when one was supplied.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	out := resultJSON{IsSuccess: r.IsSuccess(), Errors: r.errors}
	if r.HasValue() {
		out.Value = r.value
	}

	return json.Marshal(out)
}
