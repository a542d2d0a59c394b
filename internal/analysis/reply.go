package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spacesedan/reviewflow/internal/clients"
	"github.com/spacesedan/reviewflow/internal/models"
)

// cleanReply strips markdown code fences the model sometimes wraps its JSON
// in.
func cleanReply(content string) string {
	cleaned := strings.TrimSpace(content)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```JSON")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}
	return strings.TrimSpace(cleaned)
}

// ParseReply decodes the model's answer. All three fields must be present and
// non-blank; anything less is an ErrDecode so that a partial analysis is
// never stored.
func ParseReply(content string) (models.AnalysisResult, error) {
	cleaned := cleanReply(content)
	if cleaned == "" {
		return models.AnalysisResult{}, fmt.Errorf("%w: empty reply", clients.ErrDecode)
	}

	var reply models.AnalysisReply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		return models.AnalysisResult{}, fmt.Errorf("%w: %v", clients.ErrDecode, err)
	}

	var missing []string
	if blank(reply.Positive) {
		missing = append(missing, "positive")
	}
	if blank(reply.Negative) {
		missing = append(missing, "negative")
	}
	if blank(reply.Summary) {
		missing = append(missing, "summary")
	}
	if len(missing) > 0 {
		return models.AnalysisResult{}, fmt.Errorf("%w: reply missing %s", clients.ErrDecode, strings.Join(missing, ", "))
	}

	return models.AnalysisResult{
		Positive: strings.TrimSpace(*reply.Positive),
		Negative: strings.TrimSpace(*reply.Negative),
		Summary:  strings.TrimSpace(*reply.Summary),
	}, nil
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
