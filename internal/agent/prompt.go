package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/drivedesk/internal/tools"
)

// PromptConfig controls system prompt generation.
type PromptConfig struct {
	Today       time.Time
	UserName    string
	Tools       []tools.Definition
	ExtraPrompt string
}

// BuildSystemPrompt constructs the fixed instruction block sent ahead of
// the conversation on every run.
func BuildSystemPrompt(cfg PromptConfig) string {
	var b strings.Builder

	b.WriteString("You help people find and read files in Google Drive")
	if hasTool(cfg.Tools, tools.SearchBoards) {
		b.WriteString(" and items on monday.com boards")
	}
	b.WriteString(".\n\n")

	fmt.Fprintf(&b, "Current date: %s\n", cfg.Today.Format("2006-01-02 (Monday)"))
	if cfg.UserName != "" {
		fmt.Fprintf(&b, "User: %s\n", cfg.UserName)
	}
	b.WriteString("\n")

	b.WriteString("Rules:\n")
	b.WriteString("- Never invent file ids, board ids or file contents. Only use what tools return.\n")
	b.WriteString("- To open a file, call search_drive first, then refer to a result by its index.\n")
	b.WriteString("- If several files match and the user has not said which one, list them with their index and ask.\n")
	b.WriteString("- Shortcuts are followed automatically; treat them like the file they point to.\n")
	b.WriteString("- read_sheet only works on Google Sheets and read_doc only on Google Docs and PDFs. ")
	b.WriteString("If a tool reports a type mismatch, tell the user what kind of file it is instead.\n")
	if hasTool(cfg.Tools, tools.SummarizeSpend) {
		b.WriteString("- For ad spend questions about yesterday, the last 7 days or last month, use summarize_spend.\n")
	}
	if hasTool(cfg.Tools, tools.GetBoardItems) {
		b.WriteString("- To list board items, call search_boards first and pass one of the returned board ids.\n")
	}
	b.WriteString("- When a tool returns an error, explain it plainly or ask the user to clarify.\n")
	b.WriteString("- Keep answers short. Deliver the final answer with the respond tool.\n")

	if cfg.ExtraPrompt != "" {
		b.WriteString("\n")
		b.WriteString(cfg.ExtraPrompt)
		b.WriteString("\n")
	}
	return b.String()
}

func hasTool(defs []tools.Definition, name tools.Name) bool {
	for _, d := range defs {
		if d.Name == name {
			return true
		}
	}
	return false
}
