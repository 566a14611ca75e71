package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/veridex/internal/model"
	"github.com/ppiankov/veridex/internal/worker"
	"go.uber.org/zap"
)

// NewsSearcher searches indexed news articles. It accepts the structured
// "where" parameter as an additional query term since news indexes support
// boolean queries.
type NewsSearcher struct {
	httpClient *http.Client
	limiter    *worker.Limiter
	logger     *zap.Logger
	baseURL    string
	apiKey     string
	maxBytes   int64
}

// NewNewsSearcher creates a news searcher.
func NewNewsSearcher(cfg model.HTTPConfig, baseURL, apiKey string, limiter *worker.Limiter, logger *zap.Logger) *NewsSearcher {
	return &NewsSearcher{
		httpClient: newHTTPClient(cfg),
		limiter:    limiter,
		logger:     logger,
		baseURL:    baseURL,
		apiKey:     apiKey,
		maxBytes:   cfg.MaxBodyBytes,
	}
}

// SourceID returns the registry identifier for the news index.
func (s *NewsSearcher) SourceID() string { return "news" }

type newsResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Author      string    `json:"author"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

// Search queries the article index.
func (s *NewsSearcher) Search(ctx context.Context, query string, params map[string]string) ([]model.EvidenceItem, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("news API key not configured")
	}

	// Narrow the query with the structured location filter when present.
	if where := strings.TrimSpace(params[ParamWhere]); where != "" {
		query = query + " AND " + where
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("pageSize", "10")
	q.Set("sortBy", "relevancy")
	endpoint := s.baseURL + "/v2/everything?" + q.Encode()

	if err := s.limiter.Wait(ctx, endpoint); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news search: unexpected status %d", resp.StatusCode)
	}

	var parsed newsResponse
	if err := decodeJSON(resp, s.maxBytes, &parsed); err != nil {
		return nil, err
	}
	if parsed.Status != "ok" {
		return nil, fmt.Errorf("news search: status %q", parsed.Status)
	}

	items := make([]model.EvidenceItem, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		content := a.Title
		if a.Description != "" {
			content += " - " + a.Description
		}
		items = append(items, model.EvidenceItem{
			SourceID:  s.SourceID(),
			Content:   content,
			Author:    a.Author,
			URL:       a.URL,
			Timestamp: a.PublishedAt,
			Metadata:  map[string]string{"outlet": a.Source.Name},
		})
	}

	s.logger.Debug("news search complete",
		zap.String("query", query),
		zap.Int("results", len(items)))

	return items, nil
}
