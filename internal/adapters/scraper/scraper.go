// Package scraper looks up financial terms on Investopedia and extracts
// article text from educational finance sites.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"finassist/internal/adapters/config"
	"finassist/internal/metrics"
	"finassist/pkg/errors"
	"finassist/pkg/logger"
)

const (
	userAgent           = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	maxDefinitionLength = 1000
	maxArticleLength    = 2000
	maxFallbackParas    = 10
)

// TermDefinition is a definition of a financial term.
type TermDefinition struct {
	Term       string
	Title      string
	Definition string
	Source     string
	URL        string
	Builtin    bool
}

// Article is the extracted text of a web page.
type Article struct {
	URL       string
	Title     string
	Content   string
	Source    string
	ScrapedAt time.Time
}

// Scraper fetches HTML pages with a per-domain minimum interval.
type Scraper struct {
	investopediaURL string
	httpClient      *http.Client
	interval        time.Duration
	now             func() time.Time

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	log *logger.Logger
}

// New creates a scraper.
func New(cfg config.ScraperConfig) *Scraper {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := cfg.InvestopediaURL
	if base == "" {
		base = "https://www.investopedia.com"
	}
	return &Scraper{
		investopediaURL: strings.TrimRight(base, "/"),
		httpClient:      &http.Client{Timeout: timeout},
		interval:        cfg.MinInterval,
		now:             time.Now,
		limiters:        make(map[string]*rate.Limiter),
		log:             logger.Get().With("component", "scraper"),
	}
}

// TermURL returns the Investopedia page for term, e.g.
// /terms/c/compound-interest.asp.
func (s *Scraper) TermURL(term string) string {
	slug := strings.Join(strings.Fields(strings.ToLower(term)), "-")
	if slug == "" {
		return s.investopediaURL + "/terms/"
	}
	first := []rune(slug)[0]
	return fmt.Sprintf("%s/terms/%c/%s.asp", s.investopediaURL, first, url.PathEscape(slug))
}

// LookupTerm scrapes the Investopedia definition of term. When the page is
// unavailable the built-in glossary is used; ErrNotFound is returned when
// neither has the term.
func (s *Scraper) LookupTerm(ctx context.Context, term string) (*TermDefinition, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "empty term")
	}

	def, err := s.scrapeTerm(ctx, term)
	if err == nil {
		return def, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if builtin, ok := BuiltinDefinition(term); ok {
		s.log.Debugw("Using built-in definition", "term", term, "scrape_error", err)
		return builtin, nil
	}
	return nil, errors.Wrapf(errors.ErrNotFound, "definition for %q: %v", term, err)
}

func (s *Scraper) scrapeTerm(ctx context.Context, term string) (*TermDefinition, error) {
	pageURL := s.TermURL(term)

	start := time.Now()
	doc, err := s.fetch(ctx, pageURL)
	metrics.RecordProviderCall("investopedia", "term", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	title := cleanText(doc.Find("h1").First().Text())
	if title == "" {
		title = term
	}

	sel := doc.Find("#mntl-sc-block_1-0")
	if sel.Length() == 0 {
		sel = doc.Find("p")
	}
	definition := cleanText(sel.First().Text())
	if definition == "" {
		return nil, errors.Wrapf(errors.ErrNoData, "no definition on %s", pageURL)
	}

	s.log.Infow("Scraped term", "term", term)
	return &TermDefinition{
		Term:       term,
		Title:      title,
		Definition: truncate(definition, maxDefinitionLength),
		Source:     "Investopedia",
		URL:        pageURL,
	}, nil
}

// ScrapeArticle extracts the title and paragraph text of a page.
func (s *Scraper) ScrapeArticle(ctx context.Context, pageURL string) (*Article, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "invalid url %q", pageURL)
	}

	start := time.Now()
	doc, err := s.fetch(ctx, pageURL)
	metrics.RecordProviderCall("web", "article", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	title := cleanText(doc.Find("h1").First().Text())
	if title == "" {
		title = "N/A"
	}

	var paragraphs *goquery.Selection
	if body := doc.Find("article, div.article-body").First(); body.Length() > 0 {
		paragraphs = body.Find("p")
	} else {
		paragraphs = doc.Find("p").Slice(0, min(maxFallbackParas, doc.Find("p").Length()))
	}

	var parts []string
	paragraphs.Each(func(_ int, p *goquery.Selection) {
		if text := cleanText(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	return &Article{
		URL:       pageURL,
		Title:     title,
		Content:   truncate(strings.Join(parts, "\n\n"), maxArticleLength),
		Source:    u.Host,
		ScrapedAt: s.now(),
	}, nil
}

func (s *Scraper) limiterFor(host string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limiters[host]
	if !ok {
		limit := rate.Inf
		if s.interval > 0 {
			limit = rate.Every(s.interval)
		}
		l = rate.NewLimiter(limit, 1)
		s.limiters[host] = l
	}
	return l
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse url")
	}
	if err := s.limiterFor(u.Host).Wait(ctx); err != nil {
		return nil, errors.Wrapf(err, "rate limiter %s", u.Host)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrProviderUnavailable, "fetch %s: %v", u.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.Wrapf(errors.ErrNotFound, "%s", pageURL)
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, errors.Wrapf(errors.ErrProviderUnavailable, "%s returned status %d", u.Host, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "parse html")
	}
	return doc, nil
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
