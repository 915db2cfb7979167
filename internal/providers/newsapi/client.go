// Package newsapi fetches articles from the NewsAPI /v2/everything endpoint.
package newsapi

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/httpclient"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// ProviderName identifies NewsAPI records and logs.
const ProviderName = "newsapi"

const (
	defaultPageSize = 20
	removedMarker   = "[Removed]"
)

type response struct {
	Status       string    `json:"status"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
	TotalResults int       `json:"totalResults"`
	Articles     []article `json:"articles"`
}

type article struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
	Content     string    `json:"content"`
}

// Client is a NewsAPI news provider.
type Client struct {
	executor *httpclient.Executor
	apiKey   string
	language string
	logger   arbor.ILogger
}

var _ interfaces.NewsProvider = (*Client)(nil)

// NewClient creates a client issuing requests through executor.
func NewClient(executor *httpclient.Executor, apiKey string, logger arbor.ILogger) *Client {
	return &Client{
		executor: executor,
		apiKey:   apiKey,
		language: "en",
		logger:   logger,
	}
}

func (c *Client) Name() string {
	return ProviderName
}

// FetchNews searches for the query's symbol or free-text query, newest first.
func (c *Client) FetchNews(ctx context.Context, query interfaces.NewsQuery) ([]models.Article, error) {
	q := query.Query
	if query.Symbol != "" {
		q = common.ParseTicker(query.Symbol).Code
	}
	if strings.TrimSpace(q) == "" {
		return nil, fmt.Errorf("newsapi: empty query")
	}

	pageSize := query.Limit
	if pageSize <= 0 || pageSize > 100 {
		pageSize = defaultPageSize
	}

	params := map[string]string{
		"q":        q,
		"language": c.language,
		"sortBy":   "publishedAt",
		"pageSize": strconv.Itoa(pageSize),
	}
	if !query.From.IsZero() {
		params["from"] = query.From.UTC().Format(time.RFC3339)
	}

	var resp response
	err := c.executor.GetJSON(ctx, httpclient.Request{
		Path:    "/v2/everything",
		Query:   params,
		Headers: map[string]string{"X-Api-Key": c.apiKey},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("newsapi error %s: %s", resp.Code, resp.Message)
	}

	fetchedAt := time.Now().UTC()
	articles := make([]models.Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if a.URL == "" || a.Title == removedMarker {
			continue
		}
		source := a.Source.Name
		if source == "" {
			source = ProviderName
		}
		articles = append(articles, models.Article{
			Source:      source,
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			Content:     a.Content,
			Provider:    ProviderName,
			FetchedAt:   fetchedAt,
		})
	}

	c.logger.Debug().
		Str("query", query.Label()).
		Int("total", resp.TotalResults).
		Int("returned", len(articles)).
		Msg("NewsAPI articles fetched")

	return articles, nil
}
