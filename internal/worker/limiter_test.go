package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1) // 100 rps, burst 1
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://api.twitter.com/2/tweets/search/recent"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// A different source domain has its own budget
	if err := limiter.Wait(ctx, "https://newsapi.org/v2/everything"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	start := time.Now()
	err := limiter.WaitWithDelay(ctx, "https://www.usa.gov/search", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}

	duration := time.Since(start)
	if duration < 50*time.Millisecond {
		t.Errorf("expected delay >= 50ms, got %v", duration)
	}
}

func TestLimiter_BudgetIsPerDomain(t *testing.T) {
	// 1 rps, burst 1: the single token is spent by the first call
	limiter := NewLimiter(1, 1)
	ctx := context.Background()
	url := "https://newsapi.org/v2/everything"

	if err := limiter.Wait(ctx, url); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	if limiter.Allow(url) {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	// Another source domain is unaffected
	if !limiter.Allow("https://public.api.bsky.app/xrpc/app.bsky.feed.searchPosts") {
		t.Errorf("expected allow for other domain")
	}
}

func TestLimiter_SetDomainRate(t *testing.T) {
	limiter := NewLimiter(10, 10) // fast default
	domain := "api.twitter.com"

	// A stricter per-source override
	limiter.SetDomainRate(domain, 0.1, 1)

	if !limiter.Allow("https://" + domain + "/2/tweets/search/recent") {
		t.Errorf("first request should pass")
	}

	if limiter.Allow("https://" + domain + "/2/tweets/search/recent") {
		t.Errorf("second request should fail")
	}

	// Other domains keep the default rate
	if !limiter.Allow("https://newsapi.org/v2/everything") {
		t.Errorf("other domain should pass")
	}
}

func TestSourceDomain(t *testing.T) {
	domain, err := sourceDomain("https://newsapi.org/v2/everything")
	if err != nil {
		t.Fatalf("sourceDomain failed: %v", err)
	}
	if domain != "newsapi.org" {
		t.Errorf("expected newsapi.org, got %s", domain)
	}

	_, err = sourceDomain("::invalid")
	if err == nil {
		t.Errorf("expected error for invalid URL")
	}
}
