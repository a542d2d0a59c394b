package models

// SearchResultItem is a normalized blog post as it is stored and displayed.
type SearchResultItem struct {
	Title       string `json:"title" dynamodbav:"title"`
	Description string `json:"description" dynamodbav:"description"`
	Link        string `json:"link" dynamodbav:"link"`
	BloggerName string `json:"blogger_name" dynamodbav:"blogger_name"`
	PostDate    string `json:"post_date" dynamodbav:"post_date"`
}
