package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ppiankov/veridex/internal/model"
	"github.com/ppiankov/veridex/internal/worker"
	"go.uber.org/zap"
)

const twitterSearchURL = "https://api.twitter.com/2/tweets/search/recent"

// TwitterSearcher searches recent tweets through the v2 search API.
type TwitterSearcher struct {
	httpClient  *http.Client
	limiter     *worker.Limiter
	logger      *zap.Logger
	bearerToken string
	maxBytes    int64
}

// NewTwitterSearcher creates a Twitter searcher.
func NewTwitterSearcher(cfg model.HTTPConfig, bearerToken string, limiter *worker.Limiter, logger *zap.Logger) *TwitterSearcher {
	return &TwitterSearcher{
		httpClient:  newHTTPClient(cfg),
		limiter:     limiter,
		logger:      logger,
		bearerToken: bearerToken,
		maxBytes:    cfg.MaxBodyBytes,
	}
}

// SourceID returns the registry identifier for Twitter.
func (s *TwitterSearcher) SourceID() string { return "twitter" }

type twitterResponse struct {
	Data []struct {
		ID            string    `json:"id"`
		Text          string    `json:"text"`
		AuthorID      string    `json:"author_id"`
		CreatedAt     time.Time `json:"created_at"`
		PublicMetrics struct {
			RetweetCount int `json:"retweet_count"`
			ReplyCount   int `json:"reply_count"`
			LikeCount    int `json:"like_count"`
			QuoteCount   int `json:"quote_count"`
		} `json:"public_metrics"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	} `json:"includes"`
}

// Search queries the recent search endpoint for the claim query.
func (s *TwitterSearcher) Search(ctx context.Context, query string, params map[string]string) ([]model.EvidenceItem, error) {
	if s.bearerToken == "" {
		return nil, fmt.Errorf("twitter bearer token not configured")
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("max_results", "10")
	q.Set("tweet.fields", "created_at,public_metrics,author_id")
	q.Set("expansions", "author_id")
	endpoint := twitterSearchURL + "?" + q.Encode()

	if err := s.limiter.Wait(ctx, endpoint); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.bearerToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twitter search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitter search: unexpected status %d", resp.StatusCode)
	}

	var parsed twitterResponse
	if err := decodeJSON(resp, s.maxBytes, &parsed); err != nil {
		return nil, err
	}

	usernames := make(map[string]string, len(parsed.Includes.Users))
	for _, u := range parsed.Includes.Users {
		usernames[u.ID] = u.Username
	}

	items := make([]model.EvidenceItem, 0, len(parsed.Data))
	for _, tw := range parsed.Data {
		author := usernames[tw.AuthorID]
		items = append(items, model.EvidenceItem{
			SourceID:  s.SourceID(),
			Content:   tw.Text,
			Author:    author,
			URL:       fmt.Sprintf("https://twitter.com/%s/status/%s", author, tw.ID),
			Timestamp: tw.CreatedAt,
			Engagement: map[string]int{
				"retweets": tw.PublicMetrics.RetweetCount,
				"replies":  tw.PublicMetrics.ReplyCount,
				"likes":    tw.PublicMetrics.LikeCount,
				"quotes":   tw.PublicMetrics.QuoteCount,
			},
		})
	}

	s.logger.Debug("twitter search complete",
		zap.String("query", query),
		zap.Int("results", len(items)))

	return items, nil
}
