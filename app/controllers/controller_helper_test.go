package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTimePtr(t *testing.T) {
	assert.Nil(t, formatTimePtr(nil))

	now := time.Date(2026, 5, 1, 12, 34, 56, 0, time.Local)
	formatted := formatTimePtr(&now)
	assert.IsType(t, "", formatted)

	expected := now.UTC().Format(time.RFC3339)
	assert.Equal(t, expected, formatted)
}

func TestValidationMessage(t *testing.T) {
	err := validate.Struct(loginRequest{Email: "", Password: "x"})
	assert.Equal(t, "Email is required", validationMessage(err))

	err = validate.Struct(loginRequest{Email: "not-an-email", Password: "x"})
	assert.Equal(t, "Email must be a valid email address", validationMessage(err))
}

func TestDetectBrand(t *testing.T) {
	tests := []struct {
		number string
		want   string
	}{
		{number: "4111111111111111", want: "visa"},
		{number: "5500000000000004", want: "mastercard"},
		{number: "2221000000000009", want: "mastercard"},
		{number: "340000000000009", want: "amex"},
		{number: "6011000000000004", want: "discover"},
		{number: "6363680000000000", want: "elo"},
		{number: "9999999999999999", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, detectBrand(tt.number), "number %s", tt.number)
	}
}

func TestFirstProfileName(t *testing.T) {
	assert.Equal(t, "Principal", firstProfileName(""))
	assert.Equal(t, "Maria", firstProfileName("Maria"))

	long := "Maria Aparecida dos Santos Oliveira"
	assert.Len(t, []rune(firstProfileName(long)), 20)
}
