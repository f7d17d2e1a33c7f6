package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSkillName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Golang to Go", "Golang", "Go"},
		{"GOLANG to Go", "GOLANG", "Go"},
		{"go lang to Go", "go lang", "Go"},
		{"JS to JavaScript uppercase", "JS", "JavaScript"},
		{"TS to TypeScript", "ts", "TypeScript"},
		{"K8s to Kubernetes", "k8s", "Kubernetes"},
		{"reactjs to React", "reactjs", "React"},
		{"nodejs to Node.js", "nodejs", "Node.js"},
		{"python to Python", "python", "Python"},
		{"PYTHON to Python", "PYTHON", "Python"},
		{"Short acronym kept", "REST", "REST"},
		{"Mixed case kept", "PyTorch", "PyTorch"},
		{"Trailing punctuation trimmed", "Docker.", "Docker"},
		{"Empty string", "", ""},
		{"Whitespace only", "   ", ""},
		{"Multi-word stays as-is", "distributed systems", "distributed systems"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeSkillName(tt.input))
		})
	}
}

func TestNormalizeSkills_DeduplicatesPreservingOrder(t *testing.T) {
	got := NormalizeSkills([]string{"golang", "Python", "Go", "python", "", "k8s", "Kubernetes"})
	assert.Equal(t, []string{"Go", "Python", "Kubernetes"}, got)
}

func TestNormalizeSkills_EmptyInput(t *testing.T) {
	got := NormalizeSkills(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
