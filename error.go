package hyper

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Code is a status code as written on the status line. It is also used to create errors that carry
// the status a failure should be answered with.
type Code int

const (
	CodeUnknown Code = 0

	CodeContinue           Code = http.StatusContinue           // RFC 9110, 15.2.1
	CodeSwitchingProtocols Code = http.StatusSwitchingProtocols // RFC 9110, 15.2.2

	CodeOK                   Code = http.StatusOK                   // RFC 9110, 15.3.1
	CodeCreated              Code = http.StatusCreated              // RFC 9110, 15.3.2
	CodeAccepted             Code = http.StatusAccepted             // RFC 9110, 15.3.3
	CodeNonAuthoritativeInfo Code = http.StatusNonAuthoritativeInfo // RFC 9110, 15.3.4
	CodeNoContent            Code = http.StatusNoContent            // RFC 9110, 15.3.5
	CodeResetContent         Code = http.StatusResetContent         // RFC 9110, 15.3.6
	CodePartialContent       Code = http.StatusPartialContent       // RFC 9110, 15.3.7

	CodeMultipleChoices   Code = http.StatusMultipleChoices   // RFC 9110, 15.4.1
	CodeMovedPermanently  Code = http.StatusMovedPermanently  // RFC 9110, 15.4.2
	CodeFound             Code = http.StatusFound             // RFC 9110, 15.4.3
	CodeSeeOther          Code = http.StatusSeeOther          // RFC 9110, 15.4.4
	CodeNotModified       Code = http.StatusNotModified       // RFC 9110, 15.4.5
	CodeTemporaryRedirect Code = http.StatusTemporaryRedirect // RFC 9110, 15.4.8
	CodePermanentRedirect Code = http.StatusPermanentRedirect // RFC 9110, 15.4.9

	CodeBadRequest                   Code = http.StatusBadRequest                   // RFC 9110, 15.5.1
	CodeUnauthorized                 Code = http.StatusUnauthorized                 // RFC 9110, 15.5.2
	CodePaymentRequired              Code = http.StatusPaymentRequired              // RFC 9110, 15.5.3
	CodeForbidden                    Code = http.StatusForbidden                    // RFC 9110, 15.5.4
	CodeNotFound                     Code = http.StatusNotFound                     // RFC 9110, 15.5.5
	CodeMethodNotAllowed             Code = http.StatusMethodNotAllowed             // RFC 9110, 15.5.6
	CodeNotAcceptable                Code = http.StatusNotAcceptable                // RFC 9110, 15.5.7
	CodeProxyAuthRequired            Code = http.StatusProxyAuthRequired            // RFC 9110, 15.5.8
	CodeRequestTimeout               Code = http.StatusRequestTimeout               // RFC 9110, 15.5.9
	CodeConflict                     Code = http.StatusConflict                     // RFC 9110, 15.5.10
	CodeGone                         Code = http.StatusGone                         // RFC 9110, 15.5.11
	CodeLengthRequired               Code = http.StatusLengthRequired               // RFC 9110, 15.5.12
	CodePreconditionFailed           Code = http.StatusPreconditionFailed           // RFC 9110, 15.5.13
	CodeRequestEntityTooLarge        Code = http.StatusRequestEntityTooLarge        // RFC 9110, 15.5.14
	CodeRequestURITooLong            Code = http.StatusRequestURITooLong            // RFC 9110, 15.5.15
	CodeUnsupportedMediaType         Code = http.StatusUnsupportedMediaType         // RFC 9110, 15.5.16
	CodeRequestedRangeNotSatisfiable Code = http.StatusRequestedRangeNotSatisfiable // RFC 9110, 15.5.17
	CodeExpectationFailed            Code = http.StatusExpectationFailed            // RFC 9110, 15.5.18
	CodeTeapot                       Code = http.StatusTeapot                       // RFC 9110, 15.5.19 (Unused)
	CodeMisdirectedRequest           Code = http.StatusMisdirectedRequest           // RFC 9110, 15.5.20
	CodeUnprocessableEntity          Code = http.StatusUnprocessableEntity          // RFC 9110, 15.5.21
	CodeLocked                       Code = http.StatusLocked                       // RFC 4918, 11.3
	CodeFailedDependency             Code = http.StatusFailedDependency             // RFC 4918, 11.4
	CodeTooEarly                     Code = http.StatusTooEarly                     // RFC 8470, 5.2.
	CodeUpgradeRequired              Code = http.StatusUpgradeRequired              // RFC 9110, 15.5.22
	CodePreconditionRequired         Code = http.StatusPreconditionRequired         // RFC 6585, 3
	CodeTooManyRequests              Code = http.StatusTooManyRequests              // RFC 6585, 4
	CodeRequestHeaderFieldsTooLarge  Code = http.StatusRequestHeaderFieldsTooLarge  // RFC 6585, 5
	CodeUnavailableForLegalReasons   Code = http.StatusUnavailableForLegalReasons   // RFC 7725, 3

	CodeInternalServerError           Code = http.StatusInternalServerError           // RFC 9110, 15.6.1
	CodeNotImplemented                Code = http.StatusNotImplemented                // RFC 9110, 15.6.2
	CodeBadGateway                    Code = http.StatusBadGateway                    // RFC 9110, 15.6.3
	CodeServiceUnavailable            Code = http.StatusServiceUnavailable            // RFC 9110, 15.6.4
	CodeGatewayTimeout                Code = http.StatusGatewayTimeout                // RFC 9110, 15.6.5
	CodeHTTPVersionNotSupported       Code = http.StatusHTTPVersionNotSupported       // RFC 9110, 15.6.6
	CodeVariantAlsoNegotiates         Code = http.StatusVariantAlsoNegotiates         // RFC 2295, 8.1
	CodeInsufficientStorage           Code = http.StatusInsufficientStorage           // RFC 4918, 11.5
	CodeLoopDetected                  Code = http.StatusLoopDetected                  // RFC 5842, 7.2
	CodeNotExtended                   Code = http.StatusNotExtended                   // RFC 2774, 7
	CodeNetworkAuthenticationRequired Code = http.StatusNetworkAuthenticationRequired // RFC 6585, 6
)

// Reason returns the reason phrase for the status line, "Unknown" for codes without one.
func (c Code) Reason() string {
	if status := http.StatusText(int(c)); status != "" {
		return status
	}

	return "Unknown"
}

// String implements fmt.Stringer.
func (c Code) String() string { return fmt.Sprintf("%d %s", int(c), c.Reason()) }

var (
	// ErrAlreadyResponded is returned when a context is responded to a second time.
	ErrAlreadyResponded = errors.New("hyper: already responded")
	// ErrConnClosed is returned by reads and writes on a connection that was closed.
	ErrConnClosed = errors.New("hyper: connection closed")
	// ErrServerClosed is returned by Serve after Shutdown was called.
	ErrServerClosed = errors.New("hyper: server closed")
)

// Error describes a failure that should be answered with a specific status code.
type Error struct {
	code Code
	err  error
}

// NewError inits a new error given the error code.
func NewError(c Code, underlying error) *Error {
	return &Error{c, underlying}
}

func (e *Error) Code() Code    { return e.code }
func (e *Error) Unwrap() error { return e.err }
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code().Reason(), e.err.Error())
}

// CodeOf returns the error's status code if it is or wraps an [*Error] and
// [CodeUnknown] otherwise.
func CodeOf(err error) Code {
	if codeErr, ok := asError(err); ok {
		return codeErr.Code()
	}
	return CodeUnknown
}

// asError uses errors.As to unwrap any error and look for a *Error.
func asError(err error) (*Error, bool) {
	var codeErr *Error
	ok := errors.As(err, &codeErr)
	return codeErr, ok
}
