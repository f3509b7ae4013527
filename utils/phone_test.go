package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigitsOnly(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"123456", "123456"},
		{" 12-34 56 ", "123456"},
		{"12a3b4c", "1234"},
		{"+91 99999 99999", "919999999999"},
		{"abc", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DigitsOnly(tt.input), "input %q", tt.input)
	}
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "********9999", MaskPhone("+919999999999"))
	assert.Equal(t, "******7890", MaskPhone("1234567890"))
	assert.Equal(t, "1234", MaskPhone("1234"))
	assert.Equal(t, "", MaskPhone(""))
}
