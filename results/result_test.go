package results_test

import (
	"encoding/json"
	"testing"

	"github.com/advdv/hyper/results"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultStates(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		res := results.Success[any]()
		require.True(t, res.IsSuccess())
		require.False(t, res.HasValue())
		require.Empty(t, res.Errors())
		require.NoError(t, res.Err())
	})

	t.Run("success with value", func(t *testing.T) {
		res := results.SuccessValue(5)
		require.True(t, res.IsSuccess())
		require.True(t, res.HasValue())
		require.Equal(t, 5, res.Value())
	})

	t.Run("failure", func(t *testing.T) {
		res := results.Failure[any]("e")
		require.False(t, res.IsSuccess())
		require.False(t, res.HasValue())
		require.Equal(t, []results.Error{results.NewError("e")}, res.Errors())
		require.EqualError(t, res.Err(), "e")
	})

	t.Run("failure with value", func(t *testing.T) {
		res := results.FailureValue("partial", results.NewError("a"), results.NewError("b"))
		require.False(t, res.IsSuccess())
		require.True(t, res.HasValue())
		require.Equal(t, "partial", res.Value())
		require.Len(t, res.Errors(), 2)
		require.EqualError(t, res.Err(), "multiple errors: [a; b]")
	})

	t.Run("failure without errors gets a default", func(t *testing.T) {
		res := results.Failures[int]()
		require.Len(t, res.Errors(), 1)
		require.EqualError(t, res.Err(), "<No error message provided>")
	})
}

func TestEraseAndTyped(t *testing.T) {
	erased := results.SuccessValue(42).Erase()
	require.True(t, erased.HasValue())
	require.Equal(t, 42, erased.Value())

	typed, ok := results.Typed[int](erased)
	require.True(t, ok)
	require.Equal(t, 42, typed.Value())

	_, ok = results.Typed[string](erased)
	require.False(t, ok)

	failed, ok := results.Typed[string](results.Failure[int]("nope").Erase())
	require.True(t, ok)
	require.False(t, failed.IsSuccess())
	require.False(t, failed.HasValue())
}

func TestErrorTree(t *testing.T) {
	err := results.WrapAll("handle request",
		results.Wrap("load user", results.NewError("connection reset")),
		results.NewError("audit skipped"),
	)

	require.False(t, err.IsLeaf())
	assert.Equal(t, "handle request: [load user: [connection reset]; audit skipped]", err.Error())
	assert.Equal(t, "<No error message provided>", results.Error{}.Error())
	assert.Equal(t, "boom", results.FromErr(assertErr("boom")).Message)
	assert.Equal(t, results.Error{}, results.FromErr(nil))
}

func TestJSON(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		b, err := json.Marshal(results.Wrap("outer", results.Error{}))
		require.NoError(t, err)
		require.JSONEq(t, `{"message":"outer","errors":[{"message":"<No error message provided>"}]}`, string(b))
	})

	t.Run("result", func(t *testing.T) {
		b, err := json.Marshal(results.SuccessValue(map[string]bool{"ok": true}))
		require.NoError(t, err)
		require.JSONEq(t, `{"isSuccess":true,"value":{"ok":true}}`, string(b))

		b, err = json.Marshal(results.Failure[int]("bad"))
		require.NoError(t, err)
		require.JSONEq(t, `{"isSuccess":false,"errors":[{"message":"bad"}]}`, string(b))
	})
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
