package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripMarkup(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Mix and fry.", "Mix and fry."},
		{"special characters", `Salt & pepper, < 180C, "serve" 'hot'`, `Salt & pepper, < 180C, "serve" 'hot'`},
		{"tags removed", "<b>Boil</b> water", "Boil water"},
		{"script dropped", "<script>alert(1)</script>Boil", "Boil"},
		{"escaped entities decoded", "Fish &amp; chips", "Fish & chips"},
		{"trimmed", "  Soup \n", "Soup"},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripMarkup(tt.input))
		})
	}
}
