package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePlate(t *testing.T) {
	tests := []struct {
		name  string
		plate string
		want  string
	}{
		{"plain", "12가3456", "12가3456"},
		{"ascii spaces", "12가 3456", "12가3456"},
		{"full-width spaces", "12가　3456", "12가3456"},
		{"mixed-width spacing", " 12가 　 3456\t", "12가3456"},
		{"tabs and newlines", "ab\t12\ncd", "AB12CD"},
		{"lowercase latin", "abc 1234", "ABC1234"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePlate(tt.plate))
		})
	}
}

func TestNormalizePlateIdempotent(t *testing.T) {
	once := NormalizePlate("ab 12 가　cd")
	assert.Equal(t, once, NormalizePlate(once))
}
