package agent

import (
	"testing"
	"time"

	"github.com/soyeahso/drivedesk/internal/tools"
	"github.com/stretchr/testify/assert"
)

func TestBuildSystemPrompt(t *testing.T) {
	p := BuildSystemPrompt(PromptConfig{
		Today:       time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC),
		UserName:    "dana",
		Tools:       tools.Definitions(false),
		ExtraPrompt: "Answer in French.",
	})
	assert.Contains(t, p, "Current date: 2025-01-12 (Sunday)")
	assert.Contains(t, p, "User: dana")
	assert.Contains(t, p, "summarize_spend")
	assert.NotContains(t, p, "monday.com")
	assert.Contains(t, p, "Answer in French.")
}

func TestBuildSystemPromptWithBoards(t *testing.T) {
	p := BuildSystemPrompt(PromptConfig{Tools: tools.Definitions(true)})
	assert.Contains(t, p, "monday.com boards")
	assert.Contains(t, p, "search_boards first")
}
