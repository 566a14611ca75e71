package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ppiankov/veridex/internal/model"
	"github.com/ppiankov/veridex/internal/util"
)

// Structured parameter keys carried alongside the free-text query for sources
// that accept filters.
const (
	ParamWho   = "who"
	ParamWhat  = "what"
	ParamWhere = "where"
)

// Searcher is the per-source search capability. Implementations may fail per
// call; the verifier catches failures and moves on to the next source.
type Searcher interface {
	// SourceID returns the registry identifier this searcher's results report.
	SourceID() string

	// Search queries the external source. A nil or empty result list is not
	// a failure; it simply contributes no evidence.
	Search(ctx context.Context, query string, params map[string]string) ([]model.EvidenceItem, error)
}

// newHTTPClient builds the outbound client shared by searcher implementations.
func newHTTPClient(cfg model.HTTPConfig) *http.Client {
	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}
}

// decodeJSON reads at most maxBytes from the response body into v.
func decodeJSON(resp *http.Response, maxBytes int64, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
