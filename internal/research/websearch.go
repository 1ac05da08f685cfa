package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const summaryMaxLen = 800

// WebSearchClient answers free-text queries from either a real search API
// (Google Custom Search, when a key and engine id are configured) or the
// project's chat proxy endpoint. Failures come back as a marked fallback
// result; "searched but found nothing useful" is a valid non-error outcome.
type WebSearchClient struct {
	httpClient     *http.Client
	backendURL     string
	googleAPIKey   string
	googleEngineID string
	logger         *logrus.Logger
}

// SearchHit is one mapped result from the search backend.
type SearchHit struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// SearchResult bundles the query, the mapped hits, and a short summary
// suitable for prompt context. Fallback marks results produced after a
// search failure.
type SearchResult struct {
	Query    string      `json:"query"`
	Results  []SearchHit `json:"results"`
	Summary  string      `json:"summary"`
	Fallback bool        `json:"fallback,omitempty"`
}

func NewWebSearchClient(backendURL, googleAPIKey, googleEngineID string, logger *logrus.Logger) *WebSearchClient {
	return &WebSearchClient{
		httpClient:     &http.Client{Timeout: 20 * time.Second},
		backendURL:     strings.TrimSuffix(backendURL, "/"),
		googleAPIKey:   googleAPIKey,
		googleEngineID: googleEngineID,
		logger:         logger,
	}
}

// Search runs one query. The returned result is never nil.
func (c *WebSearchClient) Search(ctx context.Context, query string) *SearchResult {
	if c.googleAPIKey != "" && c.googleEngineID != "" {
		if result, err := c.searchGoogle(ctx, query); err == nil {
			return result
		} else {
			c.logger.WithError(err).WithField("query", query).Warn("Google search failed, trying chat proxy")
		}
	}
	if c.backendURL != "" {
		if result, err := c.searchViaChatProxy(ctx, query); err == nil {
			return result
		} else {
			c.logger.WithError(err).WithField("query", query).Warn("Chat proxy search failed")
		}
	}
	return &SearchResult{
		Query:    query,
		Summary:  "web search unavailable for this query",
		Fallback: true,
	}
}

func (c *WebSearchClient) searchGoogle(ctx context.Context, query string) (*SearchResult, error) {
	params := url.Values{}
	params.Set("key", c.googleAPIKey)
	params.Set("cx", c.googleEngineID)
	params.Set("q", query)
	params.Set("num", "5")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://www.googleapis.com/customsearch/v1?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned status %d", resp.StatusCode)
	}

	var payload struct {
		Items []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			Link    string `json:"link"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	result := &SearchResult{Query: query}
	var summaryParts []string
	for i, item := range payload.Items {
		result.Results = append(result.Results, SearchHit{
			Title:   item.Title,
			Snippet: item.Snippet,
			URL:     item.Link,
		})
		if i < 3 {
			summaryParts = append(summaryParts, item.Snippet)
		}
	}
	result.Summary = truncate(strings.Join(summaryParts, " | "), summaryMaxLen)
	return result, nil
}

func (c *WebSearchClient) searchViaChatProxy(ctx context.Context, query string) (*SearchResult, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"message":             fmt.Sprintf("Search the web for %q and summarize the most relevant, recent findings in a few sentences.", query),
		"userId":              "picks-engine",
		"context":             map[string]string{"purpose": "sports_research"},
		"conversationHistory": []interface{}{},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.backendURL+"/api/ai/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat proxy returned status %d", resp.StatusCode)
	}

	var payload struct {
		Response string `json:"response"`
		Message  string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode chat proxy response: %w", err)
	}

	summary := payload.Response
	if summary == "" {
		summary = payload.Message
	}
	if summary == "" {
		return nil, fmt.Errorf("chat proxy returned empty reply")
	}

	return &SearchResult{
		Query:   query,
		Summary: truncate(summary, summaryMaxLen),
	}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
