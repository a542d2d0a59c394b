package sentiment

import (
	"html"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
	"github.com/spacesedan/reviewflow/internal/models"
)

const (
	LABEL_POSITIVE = "positive"
	LABEL_NEGATIVE = "negative"
	LABEL_NEUTRAL  = "neutral"

	POSITIVE_THRESHOLD = 0.20
	NEGATIVE_THRESHOLD = -0.20
)

var (
	analyzer    = govader.NewSentimentIntensityAnalyzer()
	stripPolicy = bluemonday.StrictPolicy()

	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
)

// Score is a VADER polarity reading for one piece of text.
type Score struct {
	Compound float64 `json:"compound"`
	Label    string  `json:"label"`
}

// Tally aggregates per-post scores for a result page.
type Tally struct {
	Positive int     `json:"positive"`
	Neutral  int     `json:"neutral"`
	Negative int     `json:"negative"`
	Mean     float64 `json:"mean"`
}

func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1")
	return urlPattern.ReplaceAllString(input, "")
}

// ConvertMarkdownToText renders markdown, drops every tag and collapses
// whitespace.
func ConvertMarkdownToText(input string) string {
	rendered := blackfriday.Run([]byte(RemoveLinks(input)), blackfriday.WithNoExtensions())
	plain := html.UnescapeString(stripPolicy.Sanitize(string(rendered)))
	return strings.Join(strings.Fields(plain), " ")
}

func Label(compound float64) string {
	switch {
	case compound >= POSITIVE_THRESHOLD:
		return LABEL_POSITIVE
	case compound <= NEGATIVE_THRESHOLD:
		return LABEL_NEGATIVE
	default:
		return LABEL_NEUTRAL
	}
}

func AnalyzeWithVADER(text string) Score {
	plain := ConvertMarkdownToText(text)
	if plain == "" {
		return Score{Label: LABEL_NEUTRAL}
	}
	compound := analyzer.PolarityScores(plain).Compound
	return Score{Compound: compound, Label: Label(compound)}
}

// ScoreItem scores a post's title and snippet together. The lexicon is
// English, so Korean posts mostly read as neutral.
func ScoreItem(item models.SearchResultItem) Score {
	return AnalyzeWithVADER(item.Title + ". " + item.Description)
}

func ScoreItems(items []models.SearchResultItem) ([]Score, Tally) {
	scores := make([]Score, 0, len(items))
	var tally Tally
	var sum float64
	for _, item := range items {
		s := ScoreItem(item)
		scores = append(scores, s)
		sum += s.Compound
		switch s.Label {
		case LABEL_POSITIVE:
			tally.Positive++
		case LABEL_NEGATIVE:
			tally.Negative++
		default:
			tally.Neutral++
		}
	}
	if len(items) > 0 {
		tally.Mean = sum / float64(len(items))
	}
	return scores, tally
}
