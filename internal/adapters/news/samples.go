package news

import (
	"fmt"
	"time"
)

func sampleMarketNews(category string, limit int, now time.Time) []Article {
	articles := []Article{
		{
			Title:       "Stock Market Reaches New Highs Amid Economic Recovery",
			Description: "Major indices continue upward trend as investors remain optimistic about economic outlook.",
			Source:      "Sample Financial News",
			URL:         "https://example.com/article1",
			PublishedAt: now,
		},
		{
			Title:       "Fed Signals Potential Interest Rate Changes",
			Description: "Central bank officials discuss monetary policy adjustments in response to inflation data.",
			Source:      "Sample Economic News",
			URL:         "https://example.com/article2",
			PublishedAt: now.Add(-2 * time.Hour),
		},
		{
			Title:       "Tech Sector Leads Market Performance",
			Description: "Technology stocks drive gains as earnings reports exceed expectations.",
			Source:      "Sample Market Watch",
			URL:         "https://example.com/article3",
			PublishedAt: now.Add(-5 * time.Hour),
		},
	}
	for i := range articles {
		articles[i].Category = category
		articles[i].Sample = true
	}
	return head(articles, limit)
}

func sampleStockNews(symbol string, limit int, now time.Time) []Article {
	articles := []Article{
		{
			Title:       fmt.Sprintf("%s Reports Strong Quarterly Earnings", symbol),
			Description: fmt.Sprintf("%s exceeds analyst expectations with robust revenue growth.", symbol),
			Source:      "Sample Financial News",
			URL:         "https://example.com/stock1",
			PublishedAt: now,
		},
		{
			Title:       fmt.Sprintf("Analysts Upgrade %s Price Target", symbol),
			Description: fmt.Sprintf("Wall Street analysts raise their outlook for %s following positive developments.", symbol),
			Source:      "Sample Market Analysis",
			URL:         "https://example.com/stock2",
			PublishedAt: now.Add(-3 * time.Hour),
		},
	}
	for i := range articles {
		articles[i].Symbol = symbol
		articles[i].Sample = true
	}
	return head(articles, limit)
}

func head(articles []Article, n int) []Article {
	if n < len(articles) {
		return articles[:n]
	}
	return articles
}
