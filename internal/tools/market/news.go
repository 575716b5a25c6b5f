package market

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"google.golang.org/adk/tool"

	"finassist/internal/adapters/news"
	"finassist/internal/tools/shared"
	"finassist/pkg/errors"
)

// ArticleResult is one news article.
type ArticleResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"`
	URL         string `json:"url,omitempty"`
	Published   string `json:"published"`
}

// NewsResult lists articles, newest first.
type NewsResult struct {
	Articles []ArticleResult `json:"articles"`
	// Sample is set when the articles are illustrative placeholders.
	Sample bool `json:"sample,omitempty"`
}

// NewGetStockNewsTool returns a tool that fetches news about one ticker.
func NewGetStockNewsTool(deps shared.Deps) tool.Tool {
	return shared.NewToolBuilder(
		"get_stock_news",
		"Get recent news articles about a specific stock",
		getStockNews(deps),
		deps,
	).
		WithStats().
		Build()
}

func getStockNews(deps shared.Deps) shared.Handler[NewsArgs, NewsResult] {
	return func(ctx context.Context, args NewsArgs) (NewsResult, error) {
		if !deps.HasNews() {
			return NewsResult{}, errors.Wrap(errors.ErrNotConfigured, "news provider")
		}
		symbol, err := normalize(args.Symbol)
		if err != nil {
			return NewsResult{}, err
		}

		articles, err := deps.News.StockNews(ctx, symbol, args.Limit)
		if err != nil {
			return NewsResult{}, errors.Wrapf(err, "news for %s", symbol)
		}
		return toNewsResult(articles, time.Now()), nil
	}
}

// NewGetMarketNewsTool returns a tool that fetches general market news.
func NewGetMarketNewsTool(deps shared.Deps) tool.Tool {
	return shared.NewToolBuilder(
		"get_market_news",
		"Get recent financial market news by category: general, stocks, crypto or economy",
		getMarketNews(deps),
		deps,
	).
		WithStats().
		Build()
}

func getMarketNews(deps shared.Deps) shared.Handler[MarketNewsArgs, NewsResult] {
	return func(ctx context.Context, args MarketNewsArgs) (NewsResult, error) {
		if !deps.HasNews() {
			return NewsResult{}, errors.Wrap(errors.ErrNotConfigured, "news provider")
		}

		articles, err := deps.News.MarketNews(ctx, args.Category, args.Limit)
		if err != nil {
			return NewsResult{}, errors.Wrap(err, "market news")
		}
		return toNewsResult(articles, time.Now()), nil
	}
}

func toNewsResult(articles []news.Article, now time.Time) NewsResult {
	out := NewsResult{Articles: make([]ArticleResult, 0, len(articles))}
	for _, a := range articles {
		published := "unknown"
		if !a.PublishedAt.IsZero() {
			published = humanize.RelTime(a.PublishedAt, now, "ago", "from now")
		}
		out.Articles = append(out.Articles, ArticleResult{
			Title:       a.Title,
			Description: a.Description,
			Source:      a.Source,
			URL:         a.URL,
			Published:   published,
		})
		if a.Sample {
			out.Sample = true
		}
	}
	return out
}
