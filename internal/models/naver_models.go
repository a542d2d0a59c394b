package models

// SortMode is the ordering requested from the blog search endpoint.
type SortMode string

const (
	SortByDate       SortMode = "date" // most recent first
	SortBySimilarity SortMode = "sim"  // relevance
)

func (s SortMode) Valid() bool {
	return s == SortByDate || s == SortBySimilarity
}

type NaverBlogSearchResponse struct {
	LastBuildDate string          `json:"lastBuildDate"`
	Total         int             `json:"total"`
	Start         int             `json:"start"`
	Display       int             `json:"display"`
	Items         []NaverBlogItem `json:"items"`
}

// NaverBlogItem is a raw search hit. Title and Description still carry the
// <b> highlight tags and HTML entities the API injects around matched terms.
type NaverBlogItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	BloggerName string `json:"bloggername"`
	BloggerLink string `json:"bloggerlink"`
	PostDate    string `json:"postdate"`
}
