package hyper

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

var (
	// ErrInvalidHeaderName is returned when a header name is empty or contains a disallowed character.
	ErrInvalidHeaderName = errors.New("hyper: invalid header name")
	// ErrInvalidHeaderValue is returned when a header value contains a disallowed character.
	ErrInvalidHeaderValue = errors.New("hyper: invalid header value")
)

// https://developers.cloudflare.com/rules/transform/request-header-modification/reference/header-format
var validName, validValue [128]bool

func init() {
	for c := 'a'; c <= 'z'; c++ {
		validName[c], validName[c-'a'+'A'] = true, true
	}
	for c := '0'; c <= '9'; c++ {
		validName[c] = true
	}
	validName['-'], validName['_'] = true, true

	validValue = validName
	for _, c := range " :;.,\\/\"'!?(){}[]@<>=+*#$&`|~^%" {
		validValue[c] = true
	}
}

// Header is a case-insensitive, multi-valued collection of ASCII headers. Names keep the casing they
// were first added with and are iterated in insertion order. Values are stored as raw bytes.
//
// A Header is owned by a single request and is not safe for concurrent use.
type Header struct {
	entries map[string]*headerEntry
	order   []string
}

type headerEntry struct {
	name   string
	values [][]byte
}

// NewHeader inits an empty header collection.
func NewHeader() *Header {
	return &Header{entries: make(map[string]*headerEntry)}
}

// Len returns the number of distinct header names.
func (h *Header) Len() int { return len(h.order) }

// Names returns the header names in insertion order.
func (h *Header) Names() []string {
	return lo.Map(h.order, func(key string, _ int) string { return h.entries[key].name })
}

// Each calls fn for every header in insertion order. The value slices must not be modified.
func (h *Header) Each(fn func(name string, values [][]byte)) {
	for _, key := range h.order {
		e := h.entries[key]
		fn(e.name, e.values)
	}
}

// Add appends values to the header with the given name, creating it if necessary. At least one value
// is required.
func (h *Header) Add(name string, values ...string) error {
	if err := validateArguments(name, values); err != nil {
		return err
	}

	for _, v := range values {
		h.append(name, []byte(v))
	}

	return nil
}

// MustAdd is like [Header.Add] but panics on invalid input. It is meant for headers that are
// constructed in code.
func (h *Header) MustAdd(name string, values ...string) {
	if err := h.Add(name, values...); err != nil {
		panic(err.Error())
	}
}

// AddBytes appends a single raw value. Leading spaces are trimmed, the remainder is stored as-is.
func (h *Header) AddBytes(name string, value []byte) error {
	if !IsValidName(name) {
		return errors.Wrapf(ErrInvalidHeaderName, "%q", name)
	}

	v, ok := cleanValue(value)
	if !ok {
		return errors.Wrapf(ErrInvalidHeaderValue, "%q", value)
	}

	h.append(name, v)

	return nil
}

// TryAdd adds the header only if it doesn't exist yet and all input is valid. It never modifies the
// collection when it returns false.
func (h *Header) TryAdd(name string, values ...string) bool {
	if len(values) == 0 || !IsValidName(name) || h.has(name) {
		return false
	}

	for _, v := range values {
		if !IsValidValue(v) {
			return false
		}
	}

	for _, v := range values {
		h.append(name, []byte(v))
	}

	return true
}

// TryAddBytes is the raw counterpart of [Header.TryAdd].
func (h *Header) TryAddBytes(name string, value []byte) bool {
	if !IsValidName(name) || h.has(name) {
		return false
	}

	v, ok := cleanValue(value)
	if !ok {
		return false
	}

	h.append(name, v)

	return true
}

// Set replaces all values of the header, creating it if absent. At least one value is required, use
// [Header.Remove] to drop a header.
func (h *Header) Set(name string, values ...string) error {
	if err := validateArguments(name, values); err != nil {
		return err
	}

	h.Remove(name)
	for _, v := range values {
		h.append(name, []byte(v))
	}

	return nil
}

// MustSet is like [Header.Set] but panics on invalid input.
func (h *Header) MustSet(name string, values ...string) {
	if err := h.Set(name, values...); err != nil {
		panic(err.Error())
	}
}

// Remove deletes the header and all its values. It returns whether the header existed.
func (h *Header) Remove(name string) bool {
	key := headerKey(name)
	if _, ok := h.entries[key]; !ok {
		return false
	}

	delete(h.entries, key)
	h.order = lo.Without(h.order, key)

	return true
}

// Get returns the first value of the header.
func (h *Header) Get(name string) (string, bool) {
	v, ok := h.GetBytes(name)
	if !ok {
		return "", false
	}

	return string(v), true
}

// Values returns all values of the header.
func (h *Header) Values(name string) ([]string, bool) {
	vals, ok := h.ValuesBytes(name)
	if !ok {
		return nil, false
	}

	return lo.Map(vals, func(v []byte, _ int) string { return string(v) }), true
}

// GetBytes returns the first raw value of the header.
func (h *Header) GetBytes(name string) ([]byte, bool) {
	vals, ok := h.ValuesBytes(name)
	if !ok {
		return nil, false
	}

	return vals[0], true
}

// ValuesBytes returns all raw values of the header.
func (h *Header) ValuesBytes(name string) ([][]byte, bool) {
	if h.entries == nil {
		return nil, false
	}

	e, ok := h.entries[headerKey(name)]
	if !ok || len(e.values) == 0 {
		return nil, false
	}

	return e.values, true
}

// Clone returns a deep copy.
func (h *Header) Clone() *Header {
	c := NewHeader()
	h.Each(func(name string, values [][]byte) {
		for _, v := range values {
			c.append(name, append([]byte(nil), v...))
		}
	})

	return c
}

// String renders the headers as they would appear on the wire, without the final CRLF.
func (h *Header) String() string {
	var b strings.Builder
	h.Each(func(name string, values [][]byte) {
		b.WriteString(name)
		b.WriteString(": ")
		for i, v := range values {
			if i > 0 {
				b.WriteString(", ")
			}
			b.Write(v)
		}
		b.WriteString("\r\n")
	})

	return b.String()
}

func (h *Header) has(name string) bool {
	if h.entries == nil {
		return false
	}

	_, ok := h.entries[headerKey(name)]

	return ok
}

func (h *Header) append(name string, v []byte) {
	if h.entries == nil {
		h.entries = make(map[string]*headerEntry)
	}

	key := headerKey(name)
	e, ok := h.entries[key]
	if !ok {
		e = &headerEntry{name: name}
		h.entries[key] = e
		h.order = append(h.order, key)
	}

	e.values = append(e.values, v)
}

// headerKey is the identity of a header name. Valid names are ASCII so a byte-wise lower is enough.
func headerKey(name string) string { return strings.ToLower(name) }

func validateArguments(name string, values []string) error {
	if !IsValidName(name) {
		return errors.Wrapf(ErrInvalidHeaderName, "%q", name)
	}

	if len(values) == 0 {
		return errors.Wrapf(ErrInvalidHeaderValue, "no values for %q", name)
	}

	for i, v := range values {
		if !IsValidValue(v) {
			return errors.Wrapf(ErrInvalidHeaderValue, "%q (value %d of %q)", v, i, name)
		}
	}

	return nil
}

// cleanValue validates a raw value and trims its leading spaces. Trailing bytes are kept as-is.
func cleanValue(value []byte) ([]byte, bool) {
	for _, c := range value {
		if c >= 128 || !validValue[c] {
			return nil, false
		}
	}

	start := 0
	for start < len(value) && value[start] == ' ' {
		start++
	}

	return append([]byte(nil), value[start:]...), true
}

// IsValidName reports whether name is non-empty and only contains [A-Za-z0-9_-].
func IsValidName(name string) bool {
	if name == "" {
		return false
	}

	for i := 0; i < len(name); i++ {
		if c := name[i]; c >= 128 || !validName[c] {
			return false
		}
	}

	return true
}

// IsValidValue reports whether every byte of v is in the header value allow-list.
func IsValidValue(v string) bool {
	for i := 0; i < len(v); i++ {
		if c := v[i]; c >= 128 || !validValue[c] {
			return false
		}
	}

	return true
}

// IsValidHeader reports whether line is a well-formed "name: value" header line. It splits on the
// first colon and validates both sides independently.
func IsValidHeader(line []byte) bool {
	_, _, ok := splitHeaderLine(line)

	return ok
}

func splitHeaderLine(line []byte) (string, []byte, bool) {
	idx := -1
	for i, c := range line {
		if c == ':' {
			idx = i
			break
		}
	}

	if idx < 0 {
		return "", nil, false
	}

	name, value := string(line[:idx]), line[idx+1:]
	if !IsValidName(name) || !IsValidValue(string(value)) {
		return "", nil, false
	}

	return name, value, true
}

// NormalizeHeaderName upper-cases the first character and every character that follows a '-' or
// '_', turning "x-header-name" into "X-Header-Name". It is for display only; header identity is
// case-insensitive.
func NormalizeHeaderName(name string) string {
	if name == "" {
		return ""
	}

	b := []byte(name)
	b[0] = upper(b[0])
	for i := 1; i < len(b); i++ {
		if b[i-1] == '-' || b[i-1] == '_' {
			b[i] = upper(b[i])
		}
	}

	return string(b)
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}

	return c
}
