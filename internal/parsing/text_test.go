package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText_PreserveBulletLists(t *testing.T) {
	result := CleanText("- Item 1\n  - Item 2\n• Item 3")

	assert.Contains(t, result, "- Item 1")
	assert.Contains(t, result, "- Item 2")
	assert.Contains(t, result, "• Item 3")
}

func TestCleanText_NormalizeWhitespace(t *testing.T) {
	result := CleanText("Line    with \t multiple spaces")
	assert.Equal(t, "Line with multiple spaces", result)
}

func TestCleanText_RemoveExcessiveBlankLines(t *testing.T) {
	result := CleanText("Line 1\n\n\n\n\nLine 2")
	assert.Equal(t, "Line 1\n\nLine 2", result)
}

func TestCleanText_NormalizeLineEndings(t *testing.T) {
	result := CleanText("Line 1\r\nLine 2\rLine 3\u2028Line 4")
	assert.Equal(t, "Line 1\nLine 2\nLine 3\nLine 4", result)
}

func TestCleanText_StripsNullBytes(t *testing.T) {
	assert.Equal(t, "Jane", CleanText("J\x00a\x00n\x00e\x00"))
}

func TestCleanText_EmptyInput(t *testing.T) {
	assert.Empty(t, CleanText(""))
	assert.Empty(t, CleanText("   \n  \n  "))
}

func TestIsBulletLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"- Built things", true},
		{"• Built things", true},
		{"1. Built things", true},
		{"2) Built things", true},
		{"Built things", false},
		{"-Built", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, isBulletLine(tt.line))
		})
	}
}
