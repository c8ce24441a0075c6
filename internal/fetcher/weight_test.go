package fetcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeight(t *testing.T) {
	tests := []struct {
		input string
		scale float64
		want  float64
	}{
		{"4.25%", 1, 4.25},
		{"4,25 %", 1, 4.25},
		{" 12.5 ", 0, 12.5},
		{"0.0425", 100, 4.25},
		{"1,234.5", 1, 1234.5},
	}

	for _, tc := range tests {
		got, err := ParseWeight(tc.input, tc.scale)
		require.NoError(t, err, tc.input)
		assert.InDelta(t, tc.want, got, 1e-9, tc.input)
	}
}

func TestParseWeight_Invalid(t *testing.T) {
	for _, input := range []string{"", "-", "n/a", "%"} {
		_, err := ParseWeight(input, 1)
		assert.Error(t, err, input)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"1,234", 1234},
		{"£12,345", 12345},
		{"$1,200,000.50", 1200000.5},
		{" 42 ", 42},
		{"1 234", 1234},
	}

	for _, tc := range tests {
		got, err := ParseNumber(tc.input)
		require.NoError(t, err, tc.input)
		assert.InDelta(t, tc.want, got, 1e-9, tc.input)
	}

	for _, input := range []string{"", "-", "£", "n/a"} {
		_, err := ParseNumber(input)
		assert.Error(t, err, input)
	}
}
