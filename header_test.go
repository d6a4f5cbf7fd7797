package hyper_test

import (
	"testing"

	"github.com/advdv/hyper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderAddAndLookup(t *testing.T) {
	h := hyper.NewHeader()
	require.NoError(t, h.Add("X-Foo", "a"))
	require.NoError(t, h.Add("x-foo", "b", "c"))
	require.NoError(t, h.Add("Set-Cookie", `id=a3fWa; Expires=Thu, 21 Oct 2021 07:28:00 GMT`))

	v, ok := h.Get("X-FOO")
	require.True(t, ok)
	require.Equal(t, "a", v)

	vals, ok := h.Values("x-foo")
	require.True(t, ok)
	require.Equal(t, []string{"a", "b", "c"}, vals)

	raw, ok := h.GetBytes("set-cookie")
	require.True(t, ok)
	require.Equal(t, []byte(`id=a3fWa; Expires=Thu, 21 Oct 2021 07:28:00 GMT`), raw)

	raws, ok := h.ValuesBytes("X-Foo")
	require.True(t, ok)
	require.Len(t, raws, 3)

	_, ok = h.Get("X-Bar")
	require.False(t, ok)

	require.Equal(t, 2, h.Len())
	require.Equal(t, []string{"X-Foo", "Set-Cookie"}, h.Names())
}

func TestHeaderRoundTripsAllowedBytes(t *testing.T) {
	value := "abcXYZ019-_ :;.,\\/\"'!?(){}[]@<>=+*#$&`|~^%"

	h := hyper.NewHeader()
	require.NoError(t, h.Add("All_Allowed-1", value))

	got, ok := h.Get("all_allowed-1")
	require.True(t, ok)
	require.Equal(t, value, got)
}

func TestHeaderRejectsInvalidInput(t *testing.T) {
	for _, tt := range []struct {
		name, value string
	}{
		{"", "a"},
		{"X Foo", "a"},
		{"X:Foo", "a"},
		{"X-Foo", "tab\there"},
		{"X-Foo", "line\r\nbreak"},
		{"X-Foo", "caf\xc3\xa9"},
		{"X-F\xc3\xb6o", "a"},
	} {
		t.Run(tt.name+"="+tt.value, func(t *testing.T) {
			h := hyper.NewHeader()
			require.Error(t, h.Add(tt.name, tt.value))
			require.Error(t, h.Set(tt.name, tt.value))
			require.False(t, h.TryAdd(tt.name, tt.value))
			require.False(t, h.TryAddBytes(tt.name, []byte(tt.value)))
			require.Equal(t, 0, h.Len())
		})
	}

	t.Run("error kinds", func(t *testing.T) {
		h := hyper.NewHeader()
		require.ErrorIs(t, h.Add("", "a"), hyper.ErrInvalidHeaderName)
		require.ErrorIs(t, h.Add("X-Foo", "ok", "n\x00t ok"), hyper.ErrInvalidHeaderValue)
		require.Equal(t, 0, h.Len(), "no value is added when any is invalid")
	})

	t.Run("must variants panic", func(t *testing.T) {
		h := hyper.NewHeader()
		require.Panics(t, func() { h.MustAdd("X Foo", "a") })
		require.Panics(t, func() { h.MustSet("X-Foo", "\x7f") })
	})
}

func TestHeaderTryAddIsFirstWriteWins(t *testing.T) {
	h := hyper.NewHeader()
	require.True(t, h.TryAdd("Content-Type", "text/plain"))
	require.False(t, h.TryAdd("content-type", "application/json"))
	require.False(t, h.TryAddBytes("CONTENT-TYPE", []byte("application/json")))
	require.False(t, h.TryAdd("X-Empty"))

	v, _ := h.Get("Content-Type")
	require.Equal(t, "text/plain", v)
	require.Equal(t, 1, h.Len())
}

func TestHeaderAddBytesTrimsLeadingSpaces(t *testing.T) {
	h := hyper.NewHeader()
	require.NoError(t, h.AddBytes("Host", []byte("   example.com  ")))

	v, ok := h.GetBytes("host")
	require.True(t, ok)
	require.Equal(t, []byte("example.com  "), v)

	require.ErrorIs(t, h.AddBytes("Host", []byte{'a', 0x80}), hyper.ErrInvalidHeaderValue)
	require.ErrorIs(t, h.AddBytes("Ho st", []byte("a")), hyper.ErrInvalidHeaderName)
}

func TestHeaderSetAndRemove(t *testing.T) {
	h := hyper.NewHeader()
	h.MustAdd("X-Foo", "a", "b")
	h.MustAdd("X-Bar", "c")

	require.NoError(t, h.Set("x-foo", "z"))
	vals, _ := h.Values("X-Foo")
	require.Equal(t, []string{"z"}, vals)
	require.Equal(t, []string{"X-Bar", "x-foo"}, h.Names())

	require.ErrorIs(t, h.Set("X-Bar"), hyper.ErrInvalidHeaderValue)
	require.ErrorIs(t, h.Add("X-Baz"), hyper.ErrInvalidHeaderValue)
	vals, _ = h.Values("X-Bar")
	require.Equal(t, []string{"c"}, vals)
	_, ok := h.Get("X-Baz")
	require.False(t, ok)

	require.True(t, h.Remove("X-Bar"))

	require.True(t, h.Remove("X-FOO"))
	require.False(t, h.Remove("X-FOO"))
	require.Equal(t, 0, h.Len())
}

func TestHeaderCloneAndString(t *testing.T) {
	h := hyper.NewHeader()
	h.MustAdd("Set-Cookie", "a=1", "b=2")
	h.MustAdd("Content-Length", "11")

	c := h.Clone()
	h.MustSet("Content-Length", "12")

	v, _ := c.Get("Content-Length")
	assert.Equal(t, "11", v)
	assert.Equal(t, "Set-Cookie: a=1, b=2\r\nContent-Length: 11\r\n", c.String())

	var zero hyper.Header
	require.NoError(t, zero.Add("X-Foo", "a"))
	assert.Equal(t, 1, zero.Len())
}

func TestIsValidHeader(t *testing.T) {
	for line, valid := range map[string]bool{
		"Host: example.com":          true,
		"X-Time: 12:00:01":           true,
		"Empty:":                     true,
		"Accept: text/html, */*;q=1": true,
		"No colon":                   false,
		": no-name":                  false,
		"Bad Name: value":            false,
		"X-Foo: bad\tvalue":          false,
		"X-Foo: caf\xc3\xa9":         false,
	} {
		assert.Equal(t, valid, hyper.IsValidHeader([]byte(line)), line)
	}
}

func TestNormalizeHeaderName(t *testing.T) {
	assert.Equal(t, "X-Header-Name", hyper.NormalizeHeaderName("x-header-name"))
	assert.Equal(t, "Content_Type", hyper.NormalizeHeaderName("content_type"))
	assert.Equal(t, "ETag", hyper.NormalizeHeaderName("eTag"))
	assert.Equal(t, "", hyper.NormalizeHeaderName(""))
}
