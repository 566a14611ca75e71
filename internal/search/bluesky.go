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

// BlueskySearcher searches public BlueSky posts via the AppView search endpoint.
// No authentication is required for the public API.
type BlueskySearcher struct {
	httpClient *http.Client
	limiter    *worker.Limiter
	logger     *zap.Logger
	baseURL    string
	maxBytes   int64
}

// NewBlueskySearcher creates a BlueSky searcher.
func NewBlueskySearcher(cfg model.HTTPConfig, baseURL string, limiter *worker.Limiter, logger *zap.Logger) *BlueskySearcher {
	return &BlueskySearcher{
		httpClient: newHTTPClient(cfg),
		limiter:    limiter,
		logger:     logger,
		baseURL:    baseURL,
		maxBytes:   cfg.MaxBodyBytes,
	}
}

// SourceID returns the registry identifier for BlueSky.
func (s *BlueskySearcher) SourceID() string { return "bluesky" }

type blueskyResponse struct {
	Posts []struct {
		URI    string `json:"uri"`
		Author struct {
			Handle      string `json:"handle"`
			DisplayName string `json:"displayName"`
		} `json:"author"`
		Record struct {
			Text      string    `json:"text"`
			CreatedAt time.Time `json:"createdAt"`
		} `json:"record"`
		ReplyCount  int `json:"replyCount"`
		RepostCount int `json:"repostCount"`
		LikeCount   int `json:"likeCount"`
	} `json:"posts"`
}

// Search queries app.bsky.feed.searchPosts.
func (s *BlueskySearcher) Search(ctx context.Context, query string, params map[string]string) ([]model.EvidenceItem, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", "10")
	endpoint := s.baseURL + "/xrpc/app.bsky.feed.searchPosts?" + q.Encode()

	if err := s.limiter.Wait(ctx, endpoint); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bluesky search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bluesky search: unexpected status %d", resp.StatusCode)
	}

	var parsed blueskyResponse
	if err := decodeJSON(resp, s.maxBytes, &parsed); err != nil {
		return nil, err
	}

	items := make([]model.EvidenceItem, 0, len(parsed.Posts))
	for _, p := range parsed.Posts {
		items = append(items, model.EvidenceItem{
			SourceID:  s.SourceID(),
			Content:   p.Record.Text,
			Author:    p.Author.Handle,
			URL:       postURLFromURI(p.URI, p.Author.Handle),
			Timestamp: p.Record.CreatedAt,
			Engagement: map[string]int{
				"replies": p.ReplyCount,
				"reposts": p.RepostCount,
				"likes":   p.LikeCount,
			},
		})
	}

	s.logger.Debug("bluesky search complete",
		zap.String("query", query),
		zap.Int("results", len(items)))

	return items, nil
}

// postURLFromURI converts an at:// record URI into a web URL.
func postURLFromURI(uri, handle string) string {
	// at://did:plc:xxx/app.bsky.feed.post/<rkey>
	rkey := uri
	for i := len(uri) - 1; i >= 0; i-- {
		if uri[i] == '/' {
			rkey = uri[i+1:]
			break
		}
	}
	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", handle, rkey)
}
