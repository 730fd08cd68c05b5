package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"newsagg/internal/models"
	"newsagg/internal/query"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dataDir string) (*SQLiteStorage, error) {
	// Ensure data directory exists with secure permissions (0750)
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "news_aggregator.db")
	log.Printf("Initializing database at: %s", dbPath)

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT,
		content TEXT,
		author TEXT,
		category TEXT,
		url TEXT NOT NULL,
		image_url TEXT,
		source TEXT NOT NULL,
		external_id TEXT NOT NULL,
		published_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source, external_id)
	);

	CREATE TABLE IF NOT EXISTS user_preferences (
		user_id TEXT PRIMARY KEY,
		preferred_sources TEXT NOT NULL DEFAULT '[]',
		preferred_categories TEXT NOT NULL DEFAULT '[]',
		preferred_authors TEXT NOT NULL DEFAULT '[]',
		keywords TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at DESC);",
		"CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source);",
		"CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category);",
		"CREATE INDEX IF NOT EXISTS idx_articles_author ON articles(author);",
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	for _, index := range indexes {
		if _, err := db.Exec(index); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

const articleColumns = "id, title, description, content, author, category, url, image_url, source, external_id, published_at, created_at, updated_at"

// UpsertArticles merges a batch of canonical articles. Rows matching
// an existing (source, external_id) pair are updated in place; the
// whole batch commits or fails as one transaction.
func (s *SQLiteStorage) UpsertArticles(articles []models.Article) (int64, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO articles (title, description, content, author, category, url, image_url, source, external_id, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, external_id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			content = excluded.content,
			author = excluded.author,
			category = excluded.category,
			url = excluded.url,
			image_url = excluded.image_url,
			published_at = excluded.published_at,
			updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	var affected int64
	for _, a := range articles {
		result, err := stmt.Exec(
			a.Title, a.Description, a.Content, a.Author, a.Category,
			a.URL, a.ImageURL, string(a.Source), a.ExternalID, a.PublishedAt.UTC(),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert article %s/%s: %w", a.Source, a.ExternalID, err)
		}
		count, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		affected += count
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit upsert: %w", err)
	}

	return affected, nil
}

func (s *SQLiteStorage) GetArticle(id int64) (*models.Article, error) {
	row := s.db.QueryRow("SELECT "+articleColumns+" FROM articles WHERE id = ?", id)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load article %d: %w", id, err)
	}
	return article, nil
}

// QueryArticles executes the effective predicate set, ordered by
// publish date descending, and returns one page plus metadata.
func (s *SQLiteStorage) QueryArticles(eff query.Effective, page, perPage int) (*models.ArticlePage, error) {
	if page < 1 {
		page = 1
	}

	where, args := buildPredicates(eff)

	var total int64
	countQuery := "SELECT COUNT(*) FROM articles" + where
	if err := s.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count articles: %w", err)
	}

	listQuery := "SELECT " + articleColumns + " FROM articles" + where +
		" ORDER BY published_at DESC LIMIT ? OFFSET ?"
	listArgs := append(append([]interface{}{}, args...), perPage, (page-1)*perPage)

	rows, err := s.db.Query(listQuery, listArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	items := make([]models.Article, 0, perPage)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		items = append(items, *article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}

	lastPage := int((total + int64(perPage) - 1) / int64(perPage))
	if lastPage < 1 {
		lastPage = 1
	}

	return &models.ArticlePage{
		Data: items,
		Meta: models.PageMeta{
			Total:       total,
			PerPage:     perPage,
			CurrentPage: page,
			LastPage:    lastPage,
		},
	}, nil
}

// buildPredicates renders the effective predicate set into a WHERE
// clause. Dimensions are AND-combined; each keyword group is an OR
// over title, description and content.
func buildPredicates(eff query.Effective) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if eff.Keyword != "" {
		conditions = append(conditions, "(title LIKE ? OR description LIKE ? OR content LIKE ?)")
		pattern := "%" + eff.Keyword + "%"
		args = append(args, pattern, pattern, pattern)
	}

	for _, membership := range []struct {
		column string
		values []string
	}{
		{"source", eff.Sources},
		{"category", eff.Categories},
		{"author", eff.Authors},
	} {
		if len(membership.values) == 0 {
			continue
		}
		placeholders := strings.Repeat("?,", len(membership.values))
		conditions = append(conditions, membership.column+" IN ("+placeholders[:len(placeholders)-1]+")")
		for _, v := range membership.values {
			args = append(args, v)
		}
	}

	if eff.DateFrom != nil {
		conditions = append(conditions, "published_at >= ?")
		args = append(args, eff.DateFrom.UTC())
	}
	if eff.DateTo != nil {
		conditions = append(conditions, "published_at <= ?")
		args = append(args, eff.DateTo.UTC())
	}

	if len(eff.PrefKeywords) > 0 {
		var group []string
		for _, keyword := range eff.PrefKeywords {
			group = append(group, "title LIKE ?", "description LIKE ?", "content LIKE ?")
			pattern := "%" + keyword + "%"
			args = append(args, pattern, pattern, pattern)
		}
		conditions = append(conditions, "("+strings.Join(group, " OR ")+")")
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (s *SQLiteStorage) ListCategories() ([]string, error) {
	return s.listDistinct("category")
}

func (s *SQLiteStorage) ListAuthors() ([]string, error) {
	return s.listDistinct("author")
}

func (s *SQLiteStorage) listDistinct(column string) ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT " + column + " FROM articles WHERE " + column + " IS NOT NULL AND " + column + " != '' ORDER BY " + column)
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct %s: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", column, err)
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

func (s *SQLiteStorage) CountBySource() (map[models.Source]int64, error) {
	rows, err := s.db.Query("SELECT source, COUNT(*) FROM articles GROUP BY source")
	if err != nil {
		return nil, fmt.Errorf("failed to count by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Source]int64)
	for rows.Next() {
		var source string
		var count int64
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan source count: %w", err)
		}
		counts[models.Source(source)] = count
	}
	return counts, rows.Err()
}

// DeleteOlderThan removes articles published strictly before
// now minus days.
func (s *SQLiteStorage) DeleteOlderThan(days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	result, err := s.db.Exec("DELETE FROM articles WHERE published_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old articles: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if deleted > 0 {
		log.Printf("Cleaned up %d articles older than %d days", deleted, days)
	}
	return deleted, nil
}

func (s *SQLiteStorage) GetPreference(userID string) (*models.UserPreference, error) {
	row := s.db.QueryRow(
		"SELECT user_id, preferred_sources, preferred_categories, preferred_authors, keywords FROM user_preferences WHERE user_id = ?",
		userID,
	)

	var pref models.UserPreference
	var sources, categories, authors, keywords string
	err := row.Scan(&pref.UserID, &sources, &categories, &authors, &keywords)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load preference for %s: %w", userID, err)
	}

	for _, pair := range []struct {
		raw  string
		dest *[]string
	}{
		{sources, &pref.PreferredSources},
		{categories, &pref.PreferredCategories},
		{authors, &pref.PreferredAuthors},
		{keywords, &pref.Keywords},
	} {
		if err := json.Unmarshal([]byte(pair.raw), pair.dest); err != nil {
			return nil, fmt.Errorf("failed to decode preference for %s: %w", userID, err)
		}
	}

	return &pref, nil
}

// SavePreference upserts the caller's preference bundle keyed on
// user id.
func (s *SQLiteStorage) SavePreference(pref *models.UserPreference) error {
	encoded := make([]string, 4)
	for i, list := range [][]string{
		pref.PreferredSources, pref.PreferredCategories, pref.PreferredAuthors, pref.Keywords,
	} {
		if list == nil {
			list = []string{}
		}
		data, err := json.Marshal(list)
		if err != nil {
			return fmt.Errorf("failed to encode preference: %w", err)
		}
		encoded[i] = string(data)
	}

	_, err := s.db.Exec(`
		INSERT INTO user_preferences (user_id, preferred_sources, preferred_categories, preferred_authors, keywords)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			preferred_sources = excluded.preferred_sources,
			preferred_categories = excluded.preferred_categories,
			preferred_authors = excluded.preferred_authors,
			keywords = excluded.keywords,
			updated_at = CURRENT_TIMESTAMP`,
		pref.UserID, encoded[0], encoded[1], encoded[2], encoded[3],
	)
	if err != nil {
		return fmt.Errorf("failed to save preference for %s: %w", pref.UserID, err)
	}
	return nil
}

func (s *SQLiteStorage) DeletePreference(userID string) (bool, error) {
	result, err := s.db.Exec("DELETE FROM user_preferences WHERE user_id = ?", userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete preference for %s: %w", userID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

func (s *SQLiteStorage) CreateUser(user *models.User) error {
	_, err := s.db.Exec(
		"INSERT INTO users (id, name, email, password_hash) VALUES (?, ?, ?, ?)",
		user.ID, user.Name, user.Email, user.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetUserByEmail(email string) (*models.User, error) {
	return s.getUser("email", email)
}

func (s *SQLiteStorage) GetUserByID(id string) (*models.User, error) {
	return s.getUser("id", id)
}

func (s *SQLiteStorage) getUser(column, value string) (*models.User, error) {
	row := s.db.QueryRow("SELECT id, name, email, password_hash, created_at FROM users WHERE "+column+" = ?", value)

	var user models.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row scanner) (*models.Article, error) {
	var a models.Article
	var source string
	var description, content, author, category, imageURL sql.NullString

	err := row.Scan(
		&a.ID, &a.Title, &description, &content, &author, &category,
		&a.URL, &imageURL, &source, &a.ExternalID,
		&a.PublishedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Description = description.String
	a.Content = content.String
	a.Author = author.String
	a.Category = category.String
	a.ImageURL = imageURL.String
	a.Source = models.Source(source)
	return &a, nil
}
