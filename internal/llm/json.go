package llm

import (
	"encoding/json"
	"strings"
)

// decodeJSON parses an LLM response into dst, tolerating markdown code
// fences around the JSON body.
func decodeJSON(text string, dst any) error {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		endIdx := len(lines) - 1
		for i := len(lines) - 1; i > 0; i-- {
			if strings.TrimSpace(lines[i]) == "```" {
				endIdx = i
				break
			}
		}
		text = strings.Join(lines[1:endIdx], "\n")
	}

	return json.Unmarshal([]byte(text), dst)
}
