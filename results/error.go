package results

import (
	"encoding/json"
	"strings"
)

const noMessage = "<No error message provided>"

// Error is a failure reason. It is a leaf when it has no nested errors, otherwise it wraps the
// errors that caused it.
type Error struct {
	Message string  `json:"message"`
	Errors  []Error `json:"errors,omitempty"`
}

// NewError inits a leaf error.
func NewError(msg string) Error {
	return Error{Message: msg}
}

// Wrap inits an error that was caused by inner.
func Wrap(msg string, inner Error) Error {
	return Error{Message: msg, Errors: []Error{inner}}
}

// WrapAll inits an error that was caused by all of inners.
func WrapAll(msg string, inners ...Error) Error {
	return Error{Message: msg, Errors: append([]Error(nil), inners...)}
}

// FromErr turns a Go error into a leaf error. A nil error gives the zero Error.
func FromErr(err error) Error {
	if err == nil {
		return Error{}
	}

	return Error{Message: err.Error()}
}

// IsLeaf returns whether the error wraps no other errors.
func (e Error) IsLeaf() bool { return len(e.Errors) == 0 }

// Error renders the whole tree: "message: [cause1; cause2: [deeper]]".
func (e Error) Error() string {
	var b strings.Builder
	e.render(&b)

	return b.String()
}

func (e Error) render(b *strings.Builder) {
	if e.Message == "" {
		b.WriteString(noMessage)
	} else {
		b.WriteString(e.Message)
	}

	if len(e.Errors) == 0 {
		return
	}

	b.WriteString(": [")
	for i, cause := range e.Errors {
		if i > 0 {
			b.WriteString("; ")
		}
		cause.render(b)
	}
	b.WriteString("]")
}

// MarshalJSON fills in the default message for errors created without one.
func (e Error) MarshalJSON() ([]byte, error) {
	type plain Error
	p := plain(e)
	if p.Message == "" {
		p.Message = noMessage
	}

	return json.Marshal(p)
}
