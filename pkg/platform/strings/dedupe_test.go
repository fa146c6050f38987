package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeFold(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "only blanks",
			input:    []string{"", "  ", "\t"},
			expected: []string{},
		},
		{
			name:     "trims whitespace",
			input:    []string{"  PRIMARY  ", "partners  "},
			expected: []string{"PRIMARY", "partners"},
		},
		{
			name:     "first spelling wins",
			input:    []string{"Partners", "PRIMARY", "PARTNERS", "primary"},
			expected: []string{"Partners", "PRIMARY"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeFold(tt.input))
		})
	}
}
