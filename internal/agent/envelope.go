package agent

import (
	"encoding/json"
	"regexp"
	"strings"
)

// codeFenceRe matches a whole reply wrapped in a fenced code block.
var codeFenceRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n(.*?)\n?```$")

// UnwrapReply normalizes a final engine message. Engines trained on the
// respond tool sometimes answer with its payload, {"text": "..."}, as plain
// content; that envelope is removed. Anything that does not decode as such
// an object is returned trimmed but otherwise unchanged.
func UnwrapReply(content string) string {
	trimmed := strings.TrimSpace(content)
	candidate := trimmed
	if m := codeFenceRe.FindStringSubmatch(trimmed); m != nil {
		candidate = strings.TrimSpace(m[1])
	}
	if !strings.HasPrefix(candidate, "{") {
		return trimmed
	}

	var env struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal([]byte(candidate), &env); err != nil || env.Text == nil {
		return trimmed
	}
	return strings.TrimSpace(*env.Text)
}
