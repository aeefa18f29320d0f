package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnwrapReply(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"plain", "  hello  ", "hello"},
		{"envelope", `{"text":"hi"}`, "hi"},
		{"fenced envelope", "```json\n{\"text\": \"hi\"}\n```", "hi"},
		{"other object", `{"answer":"hi"}`, `{"answer":"hi"}`},
		{"broken json", `{"text": "hi"`, `{"text": "hi"`},
		{"non-string text", `{"text": 5}`, `{"text": 5}`},
		{"prose with braces", "use {x} here", "use {x} here"},
		{"fenced code kept", "```\nls -l\n```", "```\nls -l\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnwrapReply(tt.in))
		})
	}
}
