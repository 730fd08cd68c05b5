package provider

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"newsagg/internal/config"
	"newsagg/internal/models"
)

// Guardian fetches from a Guardian-compatible content search endpoint.
type Guardian struct {
	cfg    config.SourceConfig
	client *apiClient
}

func NewGuardian(cfg config.SourceConfig, timeout time.Duration) *Guardian {
	return &Guardian{
		cfg:    cfg,
		client: newAPIClient(models.SourceGuardian, timeout),
	}
}

func (g *Guardian) Source() models.Source {
	return models.SourceGuardian
}

func (g *Guardian) IsConfigured() bool {
	return g.cfg.APIKey != "" && g.cfg.BaseURL != ""
}

type guardianResponse struct {
	Response struct {
		Results []guardianArticle `json:"results"`
	} `json:"response"`
}

type guardianArticle struct {
	ID                 string          `json:"id"`
	WebTitle           string          `json:"webTitle"`
	WebURL             string          `json:"webUrl"`
	WebPublicationDate string          `json:"webPublicationDate"`
	SectionName        string          `json:"sectionName"`
	Fields             *guardianFields `json:"fields"`
}

type guardianFields struct {
	TrailText string `json:"trailText"`
	Body      string `json:"body"`
	Byline    string `json:"byline"`
	Thumbnail string `json:"thumbnail"`
}

func (g *Guardian) Fetch(ctx context.Context, params FetchParams) []models.Article {
	if !g.IsConfigured() {
		return nil
	}

	query := url.Values{}
	query.Set("api-key", g.cfg.APIKey)
	query.Set("page-size", strconv.Itoa(params.Limit))
	query.Set("page", "1")
	query.Set("order-by", "newest")
	query.Set("show-fields", "trailText,body,byline,thumbnail")

	var resp guardianResponse
	if err := g.client.getJSON(ctx, g.cfg.BaseURL+"/search", query, &resp); err != nil {
		return nil
	}

	articles := make([]models.Article, 0, len(resp.Response.Results))
	for _, raw := range resp.Response.Results {
		articles = append(articles, g.transform(raw))
	}
	return articles
}

// transform maps a raw Guardian article to the canonical shape. The
// description, content, author and image all live in the optional
// "fields" block; a missing block leaves all four empty. The section
// name becomes the category as delivered, without case normalization.
func (g *Guardian) transform(raw guardianArticle) models.Article {
	article := models.Article{
		Title:       raw.WebTitle,
		Category:    raw.SectionName,
		URL:         raw.WebURL,
		Source:      models.SourceGuardian,
		ExternalID:  raw.ID,
		PublishedAt: parsePublishedAt(raw.WebPublicationDate),
	}

	if raw.Fields != nil {
		article.Description = raw.Fields.TrailText
		article.Content = raw.Fields.Body
		article.Author = raw.Fields.Byline
		article.ImageURL = raw.Fields.Thumbnail
	}

	return article
}
