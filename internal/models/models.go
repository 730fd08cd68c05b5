package models

import (
	"time"
)

// Source identifies one of the supported news providers.
type Source string

const (
	SourceNewsAPI  Source = "newsapi"
	SourceGuardian Source = "guardian"
	SourceNYTimes  Source = "nytimes"
)

// Sources lists all known sources in a stable order.
func Sources() []Source {
	return []Source{SourceNewsAPI, SourceGuardian, SourceNYTimes}
}

// ParseSource converts a raw string into a Source.
func ParseSource(s string) (Source, bool) {
	switch Source(s) {
	case SourceNewsAPI, SourceGuardian, SourceNYTimes:
		return Source(s), true
	}
	return "", false
}

// Label returns the human-readable provider name.
func (s Source) Label() string {
	switch s {
	case SourceNewsAPI:
		return "NewsAPI"
	case SourceGuardian:
		return "The Guardian"
	case SourceNYTimes:
		return "New York Times"
	}
	return string(s)
}

// Article is the canonical, provider-agnostic article record.
type Article struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content,omitempty"`
	Author      string    `json:"author,omitempty"`
	Category    string    `json:"category,omitempty"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"image_url,omitempty"`
	Source      Source    `json:"source"`
	ExternalID  string    `json:"external_id"`
	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserPreference is a user's stored personalization bundle.
// A missing record means "no personalization".
type UserPreference struct {
	UserID              string   `json:"-"`
	PreferredSources    []string `json:"preferred_sources"`
	PreferredCategories []string `json:"preferred_categories"`
	PreferredAuthors    []string `json:"preferred_authors"`
	Keywords            []string `json:"keywords"`
}

// IsEmpty reports whether the bundle carries no preference at all.
func (p *UserPreference) IsEmpty() bool {
	return p == nil ||
		(len(p.PreferredSources) == 0 &&
			len(p.PreferredCategories) == 0 &&
			len(p.PreferredAuthors) == 0 &&
			len(p.Keywords) == 0)
}

// FilterCriteria captures the explicit, request-scoped filter input.
// Multi-value fields are already normalized (comma input split and
// trimmed) by the time they reach the resolver.
type FilterCriteria struct {
	Keyword           string
	Sources           []string
	Categories        []string
	Authors           []string
	DateFrom          *time.Time
	DateTo            *time.Time
	IgnorePreferences bool
	Page              int
	PerPage           int
}

// PageMeta is the pagination envelope returned with article listings.
type PageMeta struct {
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
}

// ArticlePage bundles one page of articles with its metadata.
type ArticlePage struct {
	Data []Article `json:"data"`
	Meta PageMeta  `json:"meta"`
}

// SourceInfo describes a provider in the sources listing.
type SourceInfo struct {
	ID      Source `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// SourceReport holds per-source counters for one ingestion run.
type SourceReport struct {
	Fetched int   `json:"fetched"`
	Merged  int64 `json:"merged"`
}

// IngestReport summarizes a whole ingestion run.
type IngestReport struct {
	Sources map[Source]SourceReport `json:"sources"`
	Fetched int                     `json:"fetched"`
	Merged  int64                   `json:"merged"`
}

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
