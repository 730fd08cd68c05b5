package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"newsagg/internal/aggregator"
	"newsagg/internal/auth"
	"newsagg/internal/cache"
	"newsagg/internal/config"
	"newsagg/internal/ingest"
	"newsagg/internal/models"
	"newsagg/internal/provider"
	"newsagg/internal/query"
	"newsagg/internal/scheduler"
	"newsagg/internal/storage"

	"github.com/gin-gonic/gin"
)

type stubAdapter struct {
	source   models.Source
	articles []models.Article
	block    chan struct{}
}

func (s *stubAdapter) Fetch(ctx context.Context, params provider.FetchParams) []models.Article {
	if s.block != nil {
		<-s.block
	}
	return s.articles
}

func (s *stubAdapter) IsConfigured() bool    { return true }
func (s *stubAdapter) Source() models.Source { return s.source }

func testConfig() *config.Config {
	return &config.Config{
		Port:            8080,
		DefaultPageSize: 15,
		MaxPageSize:     100,
		RetentionDays:   30,
		JWTSecret:       "test-secret",
		JWTTTL:          time.Hour,
		EnableSwagger:   false,
		Security: config.SecurityConfig{
			MaxRequestSize: 1 << 20,
		},
	}
}

func newTestServer(t *testing.T, adapters []provider.Adapter) (*Server, storage.Storage) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := testConfig()
	cacheManager := cache.NewManager(time.Minute)
	enabled := []models.Source{models.SourceNewsAPI, models.SourceGuardian, models.SourceNYTimes}
	agg := aggregator.New(adapters, enabled)
	ingestService := ingest.New(agg, store, cacheManager, 100)
	sched := scheduler.New(ingestService, time.Hour, 24*time.Hour, cfg.RetentionDays)
	authService := auth.NewService(store, cfg.JWTSecret, cfg.JWTTTL)

	server := NewServer(store, agg, ingestService, sched, authService, cacheManager, cfg)
	return server, store
}

func seedArticle(source models.Source, externalID, title, category string, publishedAt time.Time) models.Article {
	return models.Article{
		Title:       title,
		Description: "Description of " + title,
		Content:     "Content of " + title,
		Author:      "Author " + externalID,
		Category:    category,
		URL:         "https://example.com/" + externalID,
		Source:      source,
		ExternalID:  externalID,
		PublishedAt: publishedAt,
	}
}

func seedArticles(t *testing.T, store storage.Storage, articles ...models.Article) {
	t.Helper()
	if _, err := store.UpsertArticles(articles); err != nil {
		t.Fatalf("Failed to seed articles: %v", err)
	}
}

func queryAll() query.Effective { return query.Effective{} }

func doRequest(server *Server, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return body
}

func registerUser(t *testing.T, server *Server, email string) string {
	t.Helper()
	w := doRequest(server, "POST", "/api/v1/register", gin.H{
		"name":     "Test User",
		"email":    email,
		"password": "password123",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("Registration failed with status %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("Expected a token from registration")
	}
	return token
}

func TestHealthCheck(t *testing.T) {
	server, _ := newTestServer(t, nil)

	w := doRequest(server, "GET", "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", body["status"])
	}
	if body["scheduler_active"] != false {
		t.Error("Expected scheduler to be inactive in tests")
	}
}

func TestListArticlesDefaults(t *testing.T) {
	server, store := newTestServer(t, nil)

	var articles []models.Article
	for i := 0; i < 20; i++ {
		articles = append(articles, seedArticle(
			models.SourceNewsAPI,
			fmt.Sprintf("n%d", i),
			fmt.Sprintf("Article %d", i),
			"World",
			time.Now().UTC().Add(-time.Duration(i)*time.Hour),
		))
	}
	seedArticles(t, store, articles...)

	w := doRequest(server, "GET", "/api/v1/articles", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var page models.ArticlePage
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("Failed to decode page: %v", err)
	}

	if page.Meta.PerPage != 15 {
		t.Errorf("Expected default page size 15, got %d", page.Meta.PerPage)
	}
	if len(page.Data) != 15 {
		t.Errorf("Expected 15 articles on the first page, got %d", len(page.Data))
	}
	if page.Meta.Total != 20 {
		t.Errorf("Expected total 20, got %d", page.Meta.Total)
	}
	if page.Meta.LastPage != 2 {
		t.Errorf("Expected 2 pages, got %d", page.Meta.LastPage)
	}

	// Newest first.
	if page.Data[0].Title != "Article 0" {
		t.Errorf("Expected newest article first, got %s", page.Data[0].Title)
	}
}

func TestListArticlesFilters(t *testing.T) {
	server, store := newTestServer(t, nil)

	now := time.Now().UTC()
	seedArticles(t, store,
		seedArticle(models.SourceNewsAPI, "n1", "Climate summit opens", "Environment", now),
		seedArticle(models.SourceGuardian, "g1", "Football results", "Sport", now.Add(-time.Hour)),
		seedArticle(models.SourceNYTimes, "t1", "Market update", "Business", now.AddDate(0, 0, -10)),
	)

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"keyword", "?q=Climate", 1},
		{"source", "?source=guardian", 1},
		{"two sources", "?source=guardian,nytimes", 2},
		{"category", "?category=Sport", 1},
		{"author", "?author=Author%20n1", 1},
		{"date from", "?from=" + now.AddDate(0, 0, -1).Format("2006-01-02"), 2},
		{"date to", "?to=" + now.AddDate(0, 0, -5).Format("2006-01-02"), 1},
		{"no match", "?q=nonexistent", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(server, "GET", "/api/v1/articles"+tc.query, nil, "")
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
			}
			var page models.ArticlePage
			if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
				t.Fatalf("Failed to decode page: %v", err)
			}
			if len(page.Data) != tc.want {
				t.Errorf("Expected %d articles, got %d", tc.want, len(page.Data))
			}
		})
	}
}

func TestListArticlesRejectsBadInput(t *testing.T) {
	server, _ := newTestServer(t, nil)

	cases := []struct {
		name  string
		query string
	}{
		{"unknown source", "?source=reuters"},
		{"bad from date", "?from=January"},
		{"bad to date", "?to=2026-13-45"},
		{"non-numeric page", "?page=abc"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(server, "GET", "/api/v1/articles"+tc.query, nil, "")
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestListArticlesPerPageClamped(t *testing.T) {
	server, _ := newTestServer(t, nil)

	w := doRequest(server, "GET", "/api/v1/articles?per_page=1000", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var page models.ArticlePage
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("Failed to decode page: %v", err)
	}
	if page.Meta.PerPage != 100 {
		t.Errorf("Expected per_page clamped to 100, got %d", page.Meta.PerPage)
	}
}

func TestPersonalizedListing(t *testing.T) {
	server, store := newTestServer(t, nil)

	now := time.Now().UTC()
	seedArticles(t, store,
		seedArticle(models.SourceNewsAPI, "n1", "NewsAPI story", "World", now),
		seedArticle(models.SourceGuardian, "g1", "Guardian story", "World", now.Add(-time.Hour)),
	)

	token := registerUser(t, server, "reader@example.com")

	w := doRequest(server, "POST", "/api/v1/preferences", gin.H{
		"preferred_sources": []string{"newsapi"},
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to save preferences: %d %s", w.Code, w.Body.String())
	}

	fetchTitles := func(query, token string) []string {
		w := doRequest(server, "GET", "/api/v1/articles"+query, nil, token)
		if w.Code != http.StatusOK {
			t.Fatalf("Listing failed: %d %s", w.Code, w.Body.String())
		}
		var page models.ArticlePage
		if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
			t.Fatalf("Failed to decode page: %v", err)
		}
		titles := make([]string, 0, len(page.Data))
		for _, article := range page.Data {
			titles = append(titles, article.Title)
		}
		return titles
	}

	// Anonymous callers see everything.
	if titles := fetchTitles("", ""); len(titles) != 2 {
		t.Errorf("Expected 2 articles for anonymous caller, got %v", titles)
	}

	// The stored preference narrows an unfiltered authenticated request.
	titles := fetchTitles("", token)
	if len(titles) != 1 || titles[0] != "NewsAPI story" {
		t.Errorf("Expected preference-narrowed listing, got %v", titles)
	}

	// An explicit filter wins over the stored preference.
	titles = fetchTitles("?source=guardian", token)
	if len(titles) != 1 || titles[0] != "Guardian story" {
		t.Errorf("Expected explicit source to override preference, got %v", titles)
	}

	// A date-only filter also counts as explicit.
	from := now.AddDate(0, 0, -1).Format("2006-01-02")
	if titles := fetchTitles("?from="+from, token); len(titles) != 2 {
		t.Errorf("Expected date-only filter to suppress preference, got %v", titles)
	}

	// The ignore flag turns personalization off for one request.
	if titles := fetchTitles("?ignore_preferences=true", token); len(titles) != 2 {
		t.Errorf("Expected ignore_preferences to disable narrowing, got %v", titles)
	}
}

func TestGetArticle(t *testing.T) {
	server, store := newTestServer(t, nil)

	seedArticles(t, store, seedArticle(models.SourceNewsAPI, "n1", "Single story", "World", time.Now().UTC()))

	page, err := store.QueryArticles(queryAll(), 1, 10)
	if err != nil || len(page.Data) != 1 {
		t.Fatalf("Failed to load seeded article: %v", err)
	}
	id := page.Data[0].ID

	w := doRequest(server, "GET", fmt.Sprintf("/api/v1/articles/%d", id), nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	w = doRequest(server, "GET", "/api/v1/articles/999999", nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for missing article, got %d", w.Code)
	}
}

func TestListingEndpoints(t *testing.T) {
	server, store := newTestServer(t, nil)

	now := time.Now().UTC()
	seedArticles(t, store,
		seedArticle(models.SourceNewsAPI, "n1", "Story one", "World", now),
		seedArticle(models.SourceGuardian, "g1", "Story two", "Sport", now),
	)

	w := doRequest(server, "GET", "/api/v1/sources", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for sources, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["count"] != float64(3) {
		t.Errorf("Expected 3 sources, got %v", body["count"])
	}

	w = doRequest(server, "GET", "/api/v1/categories", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for categories, got %d", w.Code)
	}
	body = decodeBody(t, w)
	if body["count"] != float64(2) {
		t.Errorf("Expected 2 categories, got %v", body["count"])
	}

	w = doRequest(server, "GET", "/api/v1/authors", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for authors, got %d", w.Code)
	}

	w = doRequest(server, "GET", "/api/v1/stats", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for stats, got %d", w.Code)
	}
	body = decodeBody(t, w)
	if body["total_articles"] != float64(2) {
		t.Errorf("Expected 2 total articles, got %v", body["total_articles"])
	}
}

func TestRegisterAndLoginEndpoints(t *testing.T) {
	server, _ := newTestServer(t, nil)

	token := registerUser(t, server, "dup@example.com")
	if token == "" {
		t.Fatal("Expected registration token")
	}

	// Duplicate email.
	w := doRequest(server, "POST", "/api/v1/register", gin.H{
		"name":     "Test User",
		"email":    "dup@example.com",
		"password": "password123",
	}, "")
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for duplicate email, got %d", w.Code)
	}

	// Weak password fails validation with a field list.
	w = doRequest(server, "POST", "/api/v1/register", gin.H{
		"name":     "Test User",
		"email":    "short@example.com",
		"password": "short",
	}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for short password, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["fields"] == nil {
		t.Error("Expected field errors in validation response")
	}

	// Login round trip.
	w = doRequest(server, "POST", "/api/v1/login", gin.H{
		"email":    "dup@example.com",
		"password": "password123",
	}, "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for login, got %d", w.Code)
	}

	w = doRequest(server, "POST", "/api/v1/login", gin.H{
		"email":    "dup@example.com",
		"password": "wrong-password",
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for wrong password, got %d", w.Code)
	}
}

func TestPreferencesEndpoints(t *testing.T) {
	server, _ := newTestServer(t, nil)

	// Authentication is required.
	w := doRequest(server, "GET", "/api/v1/preferences", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without token, got %d", w.Code)
	}

	token := registerUser(t, server, "prefs@example.com")

	// Empty bundle before anything is stored.
	w = doRequest(server, "GET", "/api/v1/preferences", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	// Unknown source names are rejected.
	w = doRequest(server, "POST", "/api/v1/preferences", gin.H{
		"preferred_sources": []string{"reuters"},
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown source, got %d", w.Code)
	}

	// Save and read back.
	w = doRequest(server, "POST", "/api/v1/preferences", gin.H{
		"preferred_sources":    []string{"guardian"},
		"preferred_categories": []string{"World"},
		"keywords":             []string{"climate"},
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for save, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(server, "GET", "/api/v1/preferences", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var stored struct {
		Data models.UserPreference `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stored); err != nil {
		t.Fatalf("Failed to decode preferences: %v", err)
	}
	if len(stored.Data.PreferredSources) != 1 || stored.Data.PreferredSources[0] != "guardian" {
		t.Errorf("Unexpected stored sources: %v", stored.Data.PreferredSources)
	}

	// Delete reports whether a bundle existed.
	w = doRequest(server, "DELETE", "/api/v1/preferences", nil, token)
	body := decodeBody(t, w)
	if w.Code != http.StatusOK || body["deleted"] != true {
		t.Errorf("Expected deletion of stored bundle, got %d %v", w.Code, body)
	}

	w = doRequest(server, "DELETE", "/api/v1/preferences", nil, token)
	body = decodeBody(t, w)
	if w.Code != http.StatusOK || body["deleted"] != false {
		t.Errorf("Expected no-op deletion, got %d %v", w.Code, body)
	}
}

func TestTriggerIngest(t *testing.T) {
	adapters := []provider.Adapter{
		&stubAdapter{source: models.SourceNewsAPI, articles: []models.Article{
			seedArticle(models.SourceNewsAPI, "n1", "Fetched story", "World", time.Now().UTC()),
		}},
	}
	server, store := newTestServer(t, adapters)

	w := doRequest(server, "POST", "/api/v1/ingest", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	page, _ := store.QueryArticles(queryAll(), 1, 10)
	if page.Meta.Total != 1 {
		t.Errorf("Expected 1 ingested article, got %d", page.Meta.Total)
	}

	// Unknown source in the body fails validation.
	w = doRequest(server, "POST", "/api/v1/ingest", gin.H{"source": "reuters"}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown source, got %d", w.Code)
	}

	// Scoped run.
	w = doRequest(server, "POST", "/api/v1/ingest", gin.H{"source": "newsapi", "limit": 10}, "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for scoped run, got %d", w.Code)
	}
}

func TestTriggerIngestConflict(t *testing.T) {
	block := make(chan struct{})
	adapters := []provider.Adapter{
		&stubAdapter{source: models.SourceNewsAPI, block: block},
	}
	server, _ := newTestServer(t, adapters)

	done := make(chan struct{})
	go func() {
		doRequest(server, "POST", "/api/v1/ingest", nil, "")
		close(done)
	}()

	// Give the first run a moment to take the guard.
	time.Sleep(20 * time.Millisecond)

	w := doRequest(server, "POST", "/api/v1/ingest", nil, "")
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for overlapping run, got %d", w.Code)
	}

	close(block)
	<-done
}

func TestTriggerCleanup(t *testing.T) {
	server, store := newTestServer(t, nil)

	old := seedArticle(models.SourceNewsAPI, "old", "Old story", "World", time.Now().UTC().AddDate(0, 0, -40))
	fresh := seedArticle(models.SourceNewsAPI, "fresh", "Fresh story", "World", time.Now().UTC())
	seedArticles(t, store, old, fresh)

	w := doRequest(server, "POST", "/api/v1/cleanup", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["deleted"] != float64(1) {
		t.Errorf("Expected 1 deleted article, got %v", body["deleted"])
	}
	if body["days"] != float64(30) {
		t.Errorf("Expected default retention of 30 days, got %v", body["days"])
	}

	// Explicit retention window.
	w = doRequest(server, "POST", "/api/v1/cleanup", gin.H{"days": 1}, "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for explicit days, got %d", w.Code)
	}
}

func TestSchedulerStatusEndpoint(t *testing.T) {
	server, _ := newTestServer(t, nil)

	w := doRequest(server, "GET", "/api/v1/scheduler/status", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["running"] != false {
		t.Errorf("Expected scheduler to be stopped, got %v", body["running"])
	}
}
