package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ArticleStorage implements the ArticleStorage interface for Badger
type ArticleStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewArticleStorage creates a new ArticleStorage instance
func NewArticleStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ArticleStorage {
	return &ArticleStorage{
		db:     db,
		logger: logger,
	}
}

// SaveArticles upserts articles by URL and returns how many were written
func (s *ArticleStorage) SaveArticles(ctx context.Context, articles []models.Article) (int, error) {
	saved := 0
	for i := range articles {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		article := articles[i]
		if article.URL == "" {
			return saved, fmt.Errorf("article URL is required")
		}
		if err := s.db.Store().Upsert(article.URL, &article); err != nil {
			return saved, fmt.Errorf("failed to save article %s: %w", article.URL, err)
		}
		saved++
	}
	return saved, nil
}

func (s *ArticleStorage) GetArticle(ctx context.Context, url string) (*models.Article, error) {
	var article models.Article
	if err := s.db.Store().Get(url, &article); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("article %s: %w", url, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return &article, nil
}

// ListArticles returns matching articles newest first
func (s *ArticleStorage) ListArticles(ctx context.Context, query interfaces.ArticleQuery) ([]models.Article, error) {
	q := badgerhold.Where("URL").Ne("")
	if !query.Since.IsZero() {
		q = q.And("PublishedAt").Ge(query.Since)
	}

	var articles []models.Article
	if err := s.db.Store().Find(&articles, q.SortBy("PublishedAt").Reverse()); err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}

	result := make([]models.Article, 0, len(articles))
	for _, article := range articles {
		if query.Symbol != "" && !article.HasTicker(query.Symbol) {
			continue
		}
		result = append(result, article)
		if query.Limit > 0 && len(result) == query.Limit {
			break
		}
	}
	return result, nil
}

func (s *ArticleStorage) CountArticles(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Article{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return int(count), nil
}

// SaveStockNews upserts the news group for a symbol and day
func (s *ArticleStorage) SaveStockNews(ctx context.Context, news *models.StockNews) error {
	if news.Symbol == "" || news.Date == "" {
		return fmt.Errorf("stock news symbol and date are required")
	}
	if news.GeneratedAt.IsZero() {
		news.GeneratedAt = time.Now()
	}
	if err := s.db.Store().Upsert(stockNewsKey(news.Symbol, news.Date), news); err != nil {
		return fmt.Errorf("failed to save stock news for %s: %w", news.Symbol, err)
	}
	return nil
}

func (s *ArticleStorage) GetStockNews(ctx context.Context, symbol, date string) (*models.StockNews, error) {
	var news models.StockNews
	if err := s.db.Store().Get(stockNewsKey(symbol, date), &news); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("stock news %s on %s: %w", symbol, date, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get stock news: %w", err)
	}
	return &news, nil
}

func stockNewsKey(symbol, date string) string {
	return symbol + "|" + date
}
