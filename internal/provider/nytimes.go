package provider

import (
	"context"
	"net/url"
	"time"

	"newsagg/internal/config"
	"newsagg/internal/models"
)

// nytimesMediaHost prefixes the relative image paths the article
// search API returns.
const nytimesMediaHost = "https://www.nytimes.com/"

// NYTimes fetches from a New York Times-compatible article search
// endpoint.
type NYTimes struct {
	cfg    config.SourceConfig
	client *apiClient
}

func NewNYTimes(cfg config.SourceConfig, timeout time.Duration) *NYTimes {
	return &NYTimes{
		cfg:    cfg,
		client: newAPIClient(models.SourceNYTimes, timeout),
	}
}

func (n *NYTimes) Source() models.Source {
	return models.SourceNYTimes
}

func (n *NYTimes) IsConfigured() bool {
	return n.cfg.APIKey != "" && n.cfg.BaseURL != ""
}

type nytimesResponse struct {
	Response struct {
		Docs []nytimesArticle `json:"docs"`
	} `json:"response"`
}

type nytimesArticle struct {
	ID            string `json:"_id"`
	WebURL        string `json:"web_url"`
	Abstract      string `json:"abstract"`
	LeadParagraph string `json:"lead_paragraph"`
	SectionName   string `json:"section_name"`
	NewsDesk      string `json:"news_desk"`
	PubDate       string `json:"pub_date"`
	Headline      struct {
		Main string `json:"main"`
	} `json:"headline"`
	Byline struct {
		Original string `json:"original"`
	} `json:"byline"`
	Multimedia []struct {
		URL string `json:"url"`
	} `json:"multimedia"`
}

func (n *NYTimes) Fetch(ctx context.Context, params FetchParams) []models.Article {
	if !n.IsConfigured() {
		return nil
	}

	query := url.Values{}
	query.Set("api-key", n.cfg.APIKey)
	query.Set("page", "0")
	query.Set("sort", "newest")

	var resp nytimesResponse
	if err := n.client.getJSON(ctx, n.cfg.BaseURL+"/search/v2/articlesearch.json", query, &resp); err != nil {
		return nil
	}

	docs := resp.Response.Docs
	// The article search API pages at a fixed size; honor the caller's
	// cap anyway in case it is smaller.
	if params.Limit > 0 && len(docs) > params.Limit {
		docs = docs[:params.Limit]
	}

	articles := make([]models.Article, 0, len(docs))
	for _, raw := range docs {
		articles = append(articles, n.transform(raw))
	}
	return articles
}

// transform maps a raw NYTimes article to the canonical shape. The
// category falls back from section name to news desk; the image is
// the first multimedia entry with the canonical media host prefixed.
func (n *NYTimes) transform(raw nytimesArticle) models.Article {
	imageURL := ""
	for _, media := range raw.Multimedia {
		if media.URL != "" {
			imageURL = nytimesMediaHost + media.URL
			break
		}
	}

	category := raw.SectionName
	if category == "" {
		category = raw.NewsDesk
	}

	return models.Article{
		Title:       raw.Headline.Main,
		Description: raw.Abstract,
		Content:     raw.LeadParagraph,
		Author:      raw.Byline.Original,
		Category:    category,
		URL:         raw.WebURL,
		ImageURL:    imageURL,
		Source:      models.SourceNYTimes,
		ExternalID:  raw.ID,
		PublishedAt: parsePublishedAt(raw.PubDate),
	}
}
