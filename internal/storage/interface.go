package storage

import (
	"errors"

	"newsagg/internal/models"
	"newsagg/internal/query"
)

// ErrNotFound signals a lookup miss (article, preference or user).
var ErrNotFound = errors.New("not found")

// Storage defines the persistence surface for articles, preferences
// and users.
type Storage interface {
	// UpsertArticles merges a batch keyed on (source, external_id) in
	// one transaction and returns the number of rows inserted or
	// updated. An empty batch is a no-op returning 0.
	UpsertArticles(articles []models.Article) (int64, error)

	GetArticle(id int64) (*models.Article, error)
	QueryArticles(eff query.Effective, page, perPage int) (*models.ArticlePage, error)
	ListCategories() ([]string, error)
	ListAuthors() ([]string, error)
	CountBySource() (map[models.Source]int64, error)

	// DeleteOlderThan removes articles published strictly before
	// now minus the given number of days.
	DeleteOlderThan(days int) (int64, error)

	GetPreference(userID string) (*models.UserPreference, error)
	SavePreference(pref *models.UserPreference) error
	DeletePreference(userID string) (bool, error)

	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)

	Close() error
}
