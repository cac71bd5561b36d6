package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		valid bool
	}{
		{"valid", "+9779812345678", true},
		{"valid all zeros", "+9770000000000", true},
		{"missing prefix", "9812345678", false},
		{"wrong prefix", "+9719812345678", false},
		{"too short", "+977981234567", false},
		{"too long", "+97798123456789", false},
		{"letters", "+977981234567a", false},
		{"empty", "", false},
		{"prefix only", "+977", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePhone(tt.phone)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword(""))
	assert.Error(t, ValidatePassword("short"))
	assert.NoError(t, ValidatePassword("secret"))
	assert.NoError(t, ValidatePassword("a much longer password"))
}

func TestValidateRating(t *testing.T) {
	assert.Error(t, ValidateRating(0))
	assert.Error(t, ValidateRating(6))
	assert.Error(t, ValidateRating(-1))
	for r := 1; r <= 5; r++ {
		assert.NoError(t, ValidateRating(r))
	}
}
