package jobqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskCardNumber(t *testing.T) {
	tests := []struct {
		name     string
		number   string
		expected string
	}{
		{"full card number", "4111111111111111", "************1111"},
		{"amex length", "378282246310005", "***********0005"},
		{"short value kept as is", "1234", "1234"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskCardNumber(tt.number))
		})
	}
}
