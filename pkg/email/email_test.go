package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveNameFromEmail(t *testing.T) {
	tests := []struct {
		email, first, last string
	}{
		{"jane.doe@example.com", "Jane", "Doe"},
		{"jane_middle_doe@example.com", "Jane", "Doe"},
		{"jane@example.com", "Jane", "User"},
		{"", "User", "User"},
	}
	for _, tt := range tests {
		first, last := DeriveNameFromEmail(tt.email)
		assert.Equal(t, tt.first, first, tt.email)
		assert.Equal(t, tt.last, last, tt.email)
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Jane Doe", DisplayName("jane.doe@example.com"))
	assert.Equal(t, "Jane", DisplayName("jane@example.com"))
	assert.Equal(t, "User", DisplayName("...@example.com"))
}
