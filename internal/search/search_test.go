package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ppiankov/veridex/internal/model"
	"github.com/ppiankov/veridex/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testHTTPConfig() model.HTTPConfig {
	return model.HTTPConfig{
		Timeout:      5 * time.Second,
		UserAgent:    "Veridex/0.1 (test)",
		MaxBodyBytes: 1 << 20,
	}
}

func testLimiter() *worker.Limiter {
	return worker.NewLimiter(1000, 100)
}

func TestBlueskySearcher_MapsPostsToEvidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/xrpc/app.bsky.feed.searchPosts", r.URL.Path)
		assert.Equal(t, "PMC AI training", r.URL.Query().Get("q"))
		fmt.Fprint(w, `{"posts":[{
			"uri":"at://did:plc:abc/app.bsky.feed.post/3k44",
			"author":{"handle":"citizen.bsky.social","displayName":"Citizen"},
			"record":{"text":"PMC just announced AI training","createdAt":"2026-08-20T10:00:00Z"},
			"replyCount":1,"repostCount":2,"likeCount":3}]}`)
	}))
	defer srv.Close()

	s := NewBlueskySearcher(testHTTPConfig(), srv.URL, testLimiter(), zap.NewNop())

	items, err := s.Search(context.Background(), "PMC AI training", nil)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "bluesky", items[0].SourceID)
	assert.Equal(t, "PMC just announced AI training", items[0].Content)
	assert.Equal(t, "citizen.bsky.social", items[0].Author)
	assert.Equal(t, "https://bsky.app/profile/citizen.bsky.social/post/3k44", items[0].URL)
	assert.Equal(t, 2, items[0].Engagement["reposts"])
}

func TestBlueskySearcher_NoResultsIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"posts":[]}`)
	}))
	defer srv.Close()

	s := NewBlueskySearcher(testHTTPConfig(), srv.URL, testLimiter(), zap.NewNop())

	items, err := s.Search(context.Background(), "nothing matches this", nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestNewsSearcher_AppliesWhereFilter(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		fmt.Fprint(w, `{"status":"ok","articles":[{
			"source":{"name":"Pune Mirror"},
			"author":"Desk",
			"title":"PMC launches AI training",
			"description":"Program at SP College",
			"url":"https://example.com/article",
			"publishedAt":"2026-08-19T08:00:00Z"}]}`)
	}))
	defer srv.Close()

	s := NewNewsSearcher(testHTTPConfig(), srv.URL, "test-key", testLimiter(), zap.NewNop())

	items, err := s.Search(context.Background(), "PMC AI training", map[string]string{ParamWhere: "Pune"})
	require.NoError(t, err)

	assert.Equal(t, "PMC AI training AND Pune", gotQuery)
	require.Len(t, items, 1)
	assert.Equal(t, "news", items[0].SourceID)
	assert.Contains(t, items[0].Content, "PMC launches AI training")
	assert.Equal(t, "Pune Mirror", items[0].Metadata["outlet"])
}

func TestNewsSearcher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"error","articles":[]}`)
	}))
	defer srv.Close()

	s := NewNewsSearcher(testHTTPConfig(), srv.URL, "test-key", testLimiter(), zap.NewNop())

	_, err := s.Search(context.Background(), "anything", nil)
	assert.Error(t, err)
}

func TestNewsSearcher_RequiresAPIKey(t *testing.T) {
	s := NewNewsSearcher(testHTTPConfig(), "http://unused", "", testLimiter(), zap.NewNop())
	_, err := s.Search(context.Background(), "q", nil)
	assert.Error(t, err)
}

func TestGovernmentSearcher_ParsesResultLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow:\n")
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a href="/press/ai-training">PMC AI skill development press release</a>
			<a href="/press/ai-training">duplicate link</a>
			<a href="#top">skip anchors</a>
		</body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewGovernmentSearcher(testHTTPConfig(), srv.URL, testLimiter(), zap.NewNop())

	items, err := s.Search(context.Background(), "PMC AI training", nil)
	require.NoError(t, err)
	require.Len(t, items, 1, "duplicate hrefs and fragment links are dropped")

	assert.Equal(t, "gov", items[0].SourceID)
	assert.Equal(t, "PMC AI skill development press release", items[0].Content)
	assert.Equal(t, srv.URL+"/press/ai-training", items[0].URL)
}

func TestGovernmentSearcher_RespectsRobots(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /search\n")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewGovernmentSearcher(testHTTPConfig(), srv.URL, testLimiter(), zap.NewNop())

	_, err := s.Search(context.Background(), "PMC AI training", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "robots.txt disallows")
}
