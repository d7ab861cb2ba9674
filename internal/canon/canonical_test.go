package canon

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type status string

func TestMarshal_Scalars(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"null", nil, "null"},
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int64", int64(-100), "-100"},
		{"uint8", uint8(7), "7"},
		{"bool true", true, "true"},
		{"float integral", 3.0, "3"},
		{"float fraction", 2.5, "2.5"},
		{"float tiny", 1e-9, "1e-09"},
		{"bytes", []byte("hi"), `"aGk="`},
		{"time", time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600)), `"2024-03-01T11:00:00Z"`},
		{"uuid", uuid.MustParse("0190a0d6-4f3a-7b2c-8d1e-2f3a4b5c6d7e"), `"0190a0d6-4f3a-7b2c-8d1e-2f3a4b5c6d7e"`},
		{"named string", status("active"), `"active"`},
		{"nil pointer", (*int)(nil), "null"},
		{"no html escape", "<a&b>", `"<a&b>"`},
		{"line separator literal", "a\u2028b", "\"a\u2028b\""},
		{"escaped backslash stays", `\u2028`, `"\\u2028"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Marshal(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshal_Collections(t *testing.T) {
	result, err := Marshal([]any{"Foo", nil, 1, []int{2, 3}})
	require.NoError(t, err)
	assert.Equal(t, `["Foo",null,1,[2,3]]`, string(result))

	result, err = Marshal(map[string]any{"zebra": 1, "alpha": map[string]int{"b": 1, "a": 2}})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":{"a":2,"b":1},"zebra":1}`, string(result))
}

func TestMarshal_NFC(t *testing.T) {
	decomposed := "e\u0301"
	composed := "\u00e9"

	a, err := Marshal(decomposed)
	require.NoError(t, err)
	b, err := Marshal(composed)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestMarshal_Errors(t *testing.T) {
	_, err := Marshal(math.NaN())
	assert.Error(t, err)

	_, err = Marshal([]any{math.Inf(1)})
	assert.ErrorContains(t, err, "array[0]")

	_, err = Marshal(map[int]string{1: "x"})
	assert.Error(t, err)

	_, err = Marshal(struct{}{})
	assert.Error(t, err)
}

func TestSortedKeys_UTF16Order(t *testing.T) {
	// U+1F600 encodes as the surrogate 0xD83D, which sorts before U+FF61 in
	// UTF-16 but after it in UTF-8.
	obj := map[string]int{"\U0001F600": 1, "\uFF61": 2, "a": 3}
	assert.Equal(t, []string{"a", "\U0001F600", "\uFF61"}, SortedKeys(obj))
}
