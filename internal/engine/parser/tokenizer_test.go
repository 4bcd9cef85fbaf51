package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"6,950", 6950},
		{"1.1880", 1.1880},
		{"54.", 54},
		{"418.50", 418.50},
		{"97,432.10", 97432.10},
		{"5", 5},
	}
	for _, c := range cases {
		got := ParsePrice(c.in)
		require.NotNil(t, got, "input %q", c.in)
		assert.Equal(t, c.want, *got, "input %q", c.in)
	}
}

func TestParsePriceInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "...", ","} {
		assert.Nil(t, ParsePrice(in), "input %q", in)
	}
}
