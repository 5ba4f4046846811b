package port

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string
	Content string
}

// WebSearcher queries an external search API.
type WebSearcher interface {
	Search(query string, maxResults int) ([]SearchResult, error)
}
