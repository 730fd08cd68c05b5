package provider

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"

	"newsagg/internal/config"
	"newsagg/internal/models"
)

// NewsAPI fetches from a NewsAPI-compatible "everything" endpoint.
type NewsAPI struct {
	cfg    config.SourceConfig
	client *apiClient
}

func NewNewsAPI(cfg config.SourceConfig, timeout time.Duration) *NewsAPI {
	return &NewsAPI{
		cfg:    cfg,
		client: newAPIClient(models.SourceNewsAPI, timeout),
	}
}

func (n *NewsAPI) Source() models.Source {
	return models.SourceNewsAPI
}

func (n *NewsAPI) IsConfigured() bool {
	return n.cfg.APIKey != "" && n.cfg.BaseURL != ""
}

type newsAPIResponse struct {
	Articles []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Author      string `json:"author"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
}

func (n *NewsAPI) Fetch(ctx context.Context, params FetchParams) []models.Article {
	if !n.IsConfigured() {
		return nil
	}

	query := url.Values{}
	query.Set("apiKey", n.cfg.APIKey)
	query.Set("language", "en")
	query.Set("pageSize", strconv.Itoa(params.Limit))
	query.Set("page", "1")
	query.Set("sortBy", "publishedAt")
	// The API rejects requests without a query term.
	query.Set("q", "news")

	var resp newsAPIResponse
	if err := n.client.getJSON(ctx, n.cfg.BaseURL+"/everything", query, &resp); err != nil {
		return nil
	}

	articles := make([]models.Article, 0, len(resp.Articles))
	for _, raw := range resp.Articles {
		articles = append(articles, n.transform(raw))
	}
	return articles
}

// transform maps a raw NewsAPI article to the canonical shape. The
// provider assigns no identifier, so the external id is a digest of
// the article URL; category is never available.
func (n *NewsAPI) transform(raw newsAPIArticle) models.Article {
	sum := md5.Sum([]byte(raw.URL))

	return models.Article{
		Title:       raw.Title,
		Description: raw.Description,
		Content:     raw.Content,
		Author:      raw.Author,
		URL:         raw.URL,
		ImageURL:    raw.URLToImage,
		Source:      models.SourceNewsAPI,
		ExternalID:  hex.EncodeToString(sum[:]),
		PublishedAt: parsePublishedAt(raw.PublishedAt),
	}
}
