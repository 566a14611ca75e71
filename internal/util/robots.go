// Package util holds small shared helpers for outbound HTTP: proxy selection
// and robots.txt compliance for scraped sources.
package util

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker gates scraping of government portals on their robots.txt.
// API-backed sources never go through it; only the HTML-scraping searcher
// asks before fetching. Parsed policies are cached per host for the life of
// the process.
type RobotsChecker struct {
	policies   map[string]*robotstxt.RobotsData
	mu         sync.RWMutex
	httpClient *http.Client
	userAgent  string
}

// NewRobotsChecker creates a checker identifying itself with the given agent.
func NewRobotsChecker(userAgent string, timeout time.Duration) *RobotsChecker {
	return &RobotsChecker{
		policies: make(map[string]*robotstxt.RobotsData),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// CanFetch reports whether the URL may be fetched, and the crawl delay the
// host requests. An unreachable robots.txt allows the fetch; a missing one
// (404) allows everything for that host.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}

	policy, err := r.policyFor(ctx, parsed)
	if err != nil {
		return true, 0, nil
	}

	allowed := policy.TestAgent(parsed.Path, r.userAgent)

	crawlDelay := time.Duration(0)
	if group := policy.FindGroup(r.userAgent); group != nil {
		crawlDelay = group.CrawlDelay
	}

	return allowed, crawlDelay, nil
}

// policyFor returns the cached policy for the URL's host, fetching it once.
func (r *RobotsChecker) policyFor(ctx context.Context, parsed *url.URL) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	policy, exists := r.policies[parsed.Host]
	r.mu.RUnlock()
	if exists {
		return policy, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", parsed.Scheme, parsed.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		policy, _ := robotstxt.FromStatusAndBytes(http.StatusNotFound, nil)
		r.store(parsed.Host, policy)
		return policy, nil
	}

	policy, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.store(parsed.Host, policy)
	return policy, nil
}

func (r *RobotsChecker) store(host string, policy *robotstxt.RobotsData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[host] = policy
}

// Clear drops every cached policy, forcing refetch on next use.
func (r *RobotsChecker) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies = make(map[string]*robotstxt.RobotsData)
}
