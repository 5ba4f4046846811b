package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"docqa/internal/port"
)

// TavilyClient queries the Tavily search API. The API key is resolved at
// search time so a missing key degrades the web_search tool instead of
// blocking startup.
type TavilyClient struct {
	apiKeyEnv string
	baseURL   string
	client    *http.Client
}

type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
	Error   string         `json:"error,omitempty"`
}

type searchResult struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func NewTavilyClient(apiKeyEnv, baseURL string) *TavilyClient {
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	return &TavilyClient{
		apiKeyEnv: apiKeyEnv,
		baseURL:   baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *TavilyClient) Search(query string, maxResults int) ([]port.SearchResult, error) {
	apiKey := os.Getenv(c.apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", c.apiKeyEnv)
	}
	if maxResults <= 0 {
		maxResults = 3
	}

	body, err := json.Marshal(searchRequest{Query: query, MaxResults: maxResults})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var searchResp searchResponse
	if err := json.Unmarshal(respBody, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if searchResp.Error != "" {
			return nil, fmt.Errorf("search API error: %s", searchResp.Error)
		}
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	results := make([]port.SearchResult, 0, len(searchResp.Results))
	for _, r := range searchResp.Results {
		results = append(results, port.SearchResult{
			Title:   r.Title,
			Content: r.Content,
		})
	}
	return results, nil
}
