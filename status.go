package hyper

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/advdv/hyper/results"
	"github.com/cockroachdb/errors"
)

// Version is the protocol version of a request. Only HTTP/1.0 and HTTP/1.1 are recognized.
type Version int

const (
	VersionUnknown Version = iota
	Version10
	Version11
)

// ParseVersion maps a protocol token such as "HTTP/1.1" to a Version.
func ParseVersion(proto string) (Version, bool) {
	switch proto {
	case "HTTP/1.1":
		return Version11, true
	case "HTTP/1.0":
		return Version10, true
	default:
		return VersionUnknown, false
	}
}

func (v Version) String() string {
	switch v {
	case Version10:
		return "HTTP/1.0"
	case Version11:
		return "HTTP/1.1"
	default:
		return "HTTP/?"
	}
}

// token returns the version token for the status line. An unknown version means the parser let
// something through it should not have.
func (v Version) token() string {
	if v != Version10 && v != Version11 {
		panic("hyper: cannot respond with unknown protocol version " + v.String())
	}

	return v.String()
}

// Status is the response a responder produces: the code, optional extra headers and a body that is
// serialized by the connection's [Serializer]. A nil Body produces an empty body.
type Status struct {
	Code   Code
	Header *Header
	Body   any
}

// NewStatus inits a status without extra headers.
func NewStatus(code Code, body any) Status {
	return Status{Code: code, Body: body}
}

// OK is a 200 status with the given body.
func OK(body any) Status { return NewStatus(CodeOK, body) }

// Serializer turns a response body into bytes.
type Serializer interface {
	Serialize(v any) ([]byte, error)
}

// JSONSerializer serializes bodies with encoding/json. It never emits a trailing newline.
type JSONSerializer struct {
	EscapeHTML bool
	Indent     string
}

// Serialize implements [Serializer].
func (s JSONSerializer) Serialize(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(s.EscapeHTML)
	if s.Indent != "" {
		enc.SetIndent("", s.Indent)
	}

	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(err, "encode json body")
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// RespondOption configures a single call to [Context.Respond].
type RespondOption func(*respondOptions)

type respondOptions struct {
	serializer Serializer
}

// WithSerializer overrides the server-wide serializer for one response.
func WithSerializer(s Serializer) RespondOption {
	return func(o *respondOptions) { o.serializer = s }
}

// errorBody is the JSON shape of failures rendered by the server.
type errorBody struct {
	Errors []results.Error `json:"errors"`
}

func isHTTPProto(proto string) bool { return strings.HasPrefix(proto, "HTTP/") }
