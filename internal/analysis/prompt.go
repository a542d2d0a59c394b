package analysis

import (
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/spacesedan/reviewflow/internal/models"
)

const TRUNCATION_SUFFIX = "... (truncated)"

const systemMessage = `You are a product review analyst. You read blog posts about a product and report what people like, what they dislike, and the overall picture.`

const userPromptTemplate = `Analyze %d Naver blog posts about %q:
1. Positive opinions (5-7 lines)
2. Negative opinions (5-7 lines)
3. Overall summary (5-7 lines)

Blog posts:
%s

Respond only with a JSON object in exactly this shape, with every field filled in:
{"positive": "summary of positive opinions", "negative": "summary of negative opinions", "summary": "overall summary"}`

// BuildCorpus renders items as "Title: ...\nContent: ..." blocks separated by
// a blank line, in the order given.
func BuildCorpus(items []models.SearchResultItem) string {
	blocks := make([]string, 0, len(items))
	for _, item := range items {
		blocks = append(blocks, fmt.Sprintf("Title: %s\nContent: %s", item.Title, item.Description))
	}
	return strings.Join(blocks, "\n\n")
}

// TruncateCorpus cuts corpus to maxChars runes and appends
// TRUNCATION_SUFFIX. The bool reports whether a cut happened.
func TruncateCorpus(corpus string, maxChars int) (string, bool) {
	if maxChars <= 0 {
		return corpus, false
	}
	runes := []rune(corpus)
	if len(runes) <= maxChars {
		return corpus, false
	}
	return string(runes[:maxChars]) + TRUNCATION_SUFFIX, true
}

func BuildMessages(key string, count int, corpus string) []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemMessage,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: fmt.Sprintf(userPromptTemplate, count, key, corpus),
		},
	}
}
