package llm

import (
	"encoding/json"
	"log"
	"strings"
)

// ParseJSONObject parses a JSON object from an oracle response, tolerating
// markdown code fences and surrounding prose. Returns nil when no valid
// object can be recovered; callers treat nil as a parse failure.
func ParseJSONObject(text string) map[string]any {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	// Strip markdown code fences
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

	var result map[string]any
	if err := json.Unmarshal([]byte(text), &result); err == nil {
		return result
	}

	// Some models wrap the object in prose; try the outermost braces.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &result); err == nil {
			return result
		}
	}

	log.Printf("Failed to parse oracle response as JSON object")
	return nil
}
