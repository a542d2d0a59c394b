// Package normalize strips the highlight markup the blog search API wraps
// around matched terms so stored and displayed text are identical.
package normalize

import (
	"strings"

	"github.com/spacesedan/reviewflow/internal/models"
)

var replacer = strings.NewReplacer(
	"<b>", "",
	"</b>", "",
	"&quot;", `"`,
	"&#34;", `"`,
	"&apos;", "'",
	"&#39;", "'",
)

// Text removes emphasis tags and quote entities from s. Removing a token can
// splice two halves into a new one ("<<b>b>"), so the replacement runs until
// the text stops changing.
func Text(s string) string {
	for {
		out := replacer.Replace(s)
		if out == s {
			return out
		}
		s = out
	}
}

// Item converts a raw search hit into a stored result.
func Item(raw models.NaverBlogItem) models.SearchResultItem {
	return models.SearchResultItem{
		Title:       Text(raw.Title),
		Description: Text(raw.Description),
		Link:        raw.Link,
		BloggerName: raw.BloggerName,
		PostDate:    raw.PostDate,
	}
}

func Items(raw []models.NaverBlogItem) []models.SearchResultItem {
	out := make([]models.SearchResultItem, 0, len(raw))
	for _, r := range raw {
		out = append(out, Item(r))
	}
	return out
}

// Result re-applies Text to an already converted item. Stores call it on
// write so that callers handing in hand-built items still persist clean text.
func Result(item models.SearchResultItem) models.SearchResultItem {
	item.Title = Text(item.Title)
	item.Description = Text(item.Description)
	return item
}
