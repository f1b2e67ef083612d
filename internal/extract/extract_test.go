package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArray(t *testing.T) {
	payload := `[{"question":"Q1","answer":"A1"}]`

	t.Run("bare region", func(t *testing.T) {
		got, err := Array(payload)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("surrounded by prose", func(t *testing.T) {
		got, err := Array("Here are your cards:\n" + payload + "\nLet me know if they help!")
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("inside a code fence", func(t *testing.T) {
		got, err := Array("```json\n" + payload + "\n```")
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("idempotent", func(t *testing.T) {
		once, err := Array("noise " + payload + " noise")
		require.NoError(t, err)
		twice, err := Array(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	})

	t.Run("nested arrays reach the last bracket", func(t *testing.T) {
		raw := `text [ [1,2], [3,4] ] trailing`
		got, err := Array(raw)
		require.NoError(t, err)
		assert.Equal(t, `[ [1,2], [3,4] ]`, got)
	})

	t.Run("no opening bracket", func(t *testing.T) {
		_, err := Array("This is not JSON")
		var nerr *NoJSONError
		require.True(t, errors.As(err, &nerr))
		assert.Equal(t, KindArray, nerr.Kind)
		assert.Contains(t, nerr.Error(), "could not find JSON array")
		assert.Contains(t, nerr.Error(), "This is not JSON")
	})

	t.Run("opening without closing", func(t *testing.T) {
		_, err := Array("starts [ but never closes")
		require.Error(t, err)
	})

	t.Run("excerpt is bounded", func(t *testing.T) {
		_, err := Array(strings.Repeat("y", 5000))
		require.Error(t, err)
		assert.Less(t, len(err.Error()), 300)
	})
}

func TestObject(t *testing.T) {
	payload := `{"overall_quality":"good"}`

	t.Run("bare region", func(t *testing.T) {
		got, err := Object(payload)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("surrounded by prose and fences", func(t *testing.T) {
		got, err := Object("Feedback below.\n```json\n" + payload + "\n```\nDone.")
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("no object present", func(t *testing.T) {
		_, err := Object(`["an","array"]`)
		var nerr *NoJSONError
		require.True(t, errors.As(err, &nerr))
		assert.Equal(t, KindObject, nerr.Kind)
	})

	t.Run("closing before opening is rejected", func(t *testing.T) {
		_, err := Object("} backwards {")
		require.Error(t, err)
	})
}
