package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Email     string `json:"email" validate:"email,optmax=255"`
	FirstName string `json:"firstName" validate:"required,optmax=64"`
	LastName  string `json:"lastName" validate:"required,optmax=64"`
}

func TestValidator_Struct(t *testing.T) {
	v := New()

	longName := strings.Repeat("rightsaidfred", 15)
	longEmail := strings.Repeat("a", 60) + "@" + strings.Repeat("b", 200) + ".com"

	tests := []struct {
		name     string
		in       payload
		expected []string
	}{
		{
			name: "empty payload",
			in:   payload{},
			expected: []string{
				"email must be an email",
				"firstName should not be empty",
				"lastName should not be empty",
			},
		},
		{
			name: "only email",
			in:   payload{Email: "tom@example.com"},
			expected: []string{
				"firstName should not be empty",
				"lastName should not be empty",
			},
		},
		{
			name:     "email and first name",
			in:       payload{Email: "tom@example.com", FirstName: "Tom"},
			expected: []string{"lastName should not be empty"},
		},
		{
			name: "valid",
			in:   payload{Email: "tom@example.com", FirstName: "Tom", LastName: "Jones"},
		},
		{
			name:     "first name too long",
			in:       payload{Email: "tom@example.com", FirstName: longName, LastName: "Jones"},
			expected: []string{"firstName must be shorter than or equal to 64 characters"},
		},
		{
			name: "both names too long",
			in:   payload{Email: "tom@example.com", FirstName: longName, LastName: longName},
			expected: []string{
				"firstName must be shorter than or equal to 64 characters",
				"lastName must be shorter than or equal to 64 characters",
			},
		},
		{
			name:     "invalid email reports only the format",
			in:       payload{Email: "not-an-email", FirstName: "Tom", LastName: "Jones"},
			expected: []string{"email must be an email"},
		},
		{
			name:     "email too long",
			in:       payload{Email: longEmail, FirstName: "Tom", LastName: "Jones"},
			expected: []string{"email must be shorter than or equal to 255 characters"},
		},
		{
			name: "single-character top-level domain is accepted",
			in:   payload{Email: "a@b.c", FirstName: "Tom", LastName: "Jones"},
		},
		{
			name: "64 multi-byte characters fit",
			in:   payload{Email: "tom@example.com", FirstName: strings.Repeat("é", 64), LastName: "Jones"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages, err := v.Struct(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, messages)
		})
	}
}

func TestValidator_Struct_NotAStruct(t *testing.T) {
	v := New()

	messages, err := v.Struct("plain string")

	assert.Error(t, err)
	assert.Nil(t, messages)
}
