package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ppiankov/veridex/internal/model"
	"github.com/ppiankov/veridex/internal/util"
	"github.com/ppiankov/veridex/internal/worker"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// GovernmentSearcher searches an official government portal. Portals expose no
// stable JSON search API, so this searcher scrapes the HTML result page; it
// honors robots.txt before every fetch.
type GovernmentSearcher struct {
	httpClient *http.Client
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
	logger     *zap.Logger
	baseURL    string
	userAgent  string
	maxBytes   int64
}

// NewGovernmentSearcher creates a government portal searcher.
func NewGovernmentSearcher(cfg model.HTTPConfig, baseURL string, limiter *worker.Limiter, logger *zap.Logger) *GovernmentSearcher {
	return &GovernmentSearcher{
		httpClient: newHTTPClient(cfg),
		limiter:    limiter,
		robots:     util.NewRobotsChecker(cfg.UserAgent, cfg.Timeout),
		logger:     logger,
		baseURL:    baseURL,
		userAgent:  cfg.UserAgent,
		maxBytes:   cfg.MaxBodyBytes,
	}
}

// SourceID returns the registry identifier for the government portal.
func (s *GovernmentSearcher) SourceID() string { return "gov" }

// Search fetches and parses the portal's search result page.
func (s *GovernmentSearcher) Search(ctx context.Context, query string, params map[string]string) ([]model.EvidenceItem, error) {
	q := url.Values{}
	q.Set("query", query)
	endpoint := s.baseURL + "/search?" + q.Encode()

	allowed, crawlDelay, err := s.robots.CanFetch(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("robots check: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("robots.txt disallows %s", endpoint)
	}

	if err := s.limiter.WaitWithDelay(ctx, endpoint, crawlDelay); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gov search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gov search: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	items, err := s.parseResults(string(body))
	if err != nil {
		return nil, err
	}

	s.logger.Debug("gov search complete",
		zap.String("query", query),
		zap.Int("results", len(items)))

	return items, nil
}

// parseResults walks the result page and collects outbound result links with
// their anchor text as content.
func (s *GovernmentSearcher) parseResults(htmlContent string) ([]model.EvidenceItem, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}

	base, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	var items []model.EvidenceItem
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			href := ""
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					href = strings.TrimSpace(attr.Val)
				}
			}
			text := strings.TrimSpace(nodeText(n))

			if href != "" && text != "" && !strings.HasPrefix(href, "#") {
				if u, err := url.Parse(href); err == nil {
					resolved := base.ResolveReference(u).String()
					if !seen[resolved] {
						seen[resolved] = true
						items = append(items, model.EvidenceItem{
							SourceID: s.SourceID(),
							Content:  text,
							URL:      resolved,
							Metadata: map[string]string{"portal": base.Host},
						})
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return items, nil
}

// nodeText collects the concatenated text content under a node.
func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
	}
	return sb.String()
}
