package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"sentiment-panel/internal/logger"
)

// ScrapeSource collects headlines from public financial news sites when no
// feed endpoint is available. The article URL doubles as the story id.
type ScrapeSource struct {
	sites   []scrapeSite
	timeout time.Duration
	maxRows int
}

type scrapeSite struct {
	Name       string
	BaseURL    string
	SearchPath string // "{symbol}" is replaced with the lowercased RIC base
	Selectors  articleSelectors
	RateLimit  time.Duration
}

type articleSelectors struct {
	ArticleContainer string
	Title            string
	URL              string
	PublishedAt      string
}

func NewScrapeSource(timeout time.Duration, maxRows int) *ScrapeSource {
	return &ScrapeSource{
		sites:   defaultSites(),
		timeout: timeout,
		maxRows: maxRows,
	}
}

func defaultSites() []scrapeSite {
	return []scrapeSite{
		{
			Name:       "MoneyControl",
			BaseURL:    "https://www.moneycontrol.com",
			SearchPath: "/news/tags/{symbol}.html",
			Selectors: articleSelectors{
				ArticleContainer: "li.clearfix",
				Title:            "h2 a, h3 a",
				URL:              "h2 a, h3 a",
				PublishedAt:      "span.ago",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "EconomicTimes",
			BaseURL:    "https://economictimes.indiatimes.com",
			SearchPath: "/topic/{symbol}",
			Selectors: articleSelectors{
				ArticleContainer: "div.story-box",
				Title:            "a",
				URL:              "a",
				PublishedAt:      "time",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "BusinessStandard",
			BaseURL:    "https://www.business-standard.com",
			SearchPath: "/search?q={symbol}",
			Selectors: articleSelectors{
				ArticleContainer: "div.listing-txt",
				Title:            "a.Hdng",
				URL:              "a.Hdng",
				PublishedAt:      "span.listing-date",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

func (s *ScrapeSource) Name() string { return "scrape" }

// Fetch scrapes every configured site in turn. A failing site is logged and
// skipped; the run fails only when no site yields anything.
func (s *ScrapeSource) Fetch(ctx context.Context, ric string) ([]Item, error) {
	symbol := ricBase(ric)
	perSite := s.maxRows / len(s.sites)
	if perSite < 1 {
		perSite = 1
	}

	var items []Item
	var lastErr error
	for _, site := range s.sites {
		siteItems, err := s.scrapeSite(ctx, site, symbol, perSite)
		if err != nil {
			logger.ErrorWithErr(ctx, "site scrape failed", err, "site", site.Name, "symbol", symbol)
			lastErr = err
			continue
		}
		items = append(items, siteItems...)
		time.Sleep(site.RateLimit)
	}
	if len(items) == 0 && lastErr != nil {
		return nil, fmt.Errorf("all scrape sites failed, last error: %w", lastErr)
	}
	return items, nil
}

func (s *ScrapeSource) scrapeSite(ctx context.Context, site scrapeSite, symbol string, maxItems int) ([]Item, error) {
	var items []Item

	c := colly.NewCollector(
		colly.AllowedDomains(hostOf(site.BaseURL)),
		colly.MaxDepth(1),
		colly.Async(false),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	c.OnHTML(site.Selectors.ArticleContainer, func(e *colly.HTMLElement) {
		if len(items) >= maxItems {
			return
		}

		title := strings.TrimSpace(e.ChildText(site.Selectors.Title))
		if title == "" {
			return
		}
		articleURL := e.ChildAttr(site.Selectors.URL, "href")
		if articleURL == "" {
			return
		}
		if !strings.HasPrefix(articleURL, "http") {
			articleURL = site.BaseURL + articleURL
		}

		items = append(items, Item{
			TimestampRaw: strings.TrimSpace(e.ChildText(site.Selectors.PublishedAt)),
			Headline:     title,
			Source:       site.Name,
			StoryID:      articleURL,
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "scrape request failed", err, "site", site.Name, "url", r.Request.URL.String())
	})

	searchURL := site.BaseURL + strings.ReplaceAll(site.SearchPath, "{symbol}", strings.ToLower(symbol))
	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("visiting %s: %w", searchURL, err)
	}
	c.Wait()

	// Listing pages often show relative times only. Fetch the article page
	// for items whose timestamp is not machine-parseable.
	for i := range items {
		if _, err := time.Parse(time.RFC3339, items[i].TimestampRaw); err == nil {
			continue
		}
		if published := s.fetchPublishedAt(ctx, items[i].StoryID); published != "" {
			items[i].TimestampRaw = published
		}
		time.Sleep(500 * time.Millisecond)
	}

	return items, nil
}

// fetchPublishedAt pulls the publication timestamp out of an article page's
// metadata.
func (s *ScrapeSource) fetchPublishedAt(ctx context.Context, articleURL string) string {
	c := colly.NewCollector()
	c.SetRequestTimeout(s.timeout)

	var published string

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	})

	c.OnResponse(func(r *colly.Response) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(r.Body)))
		if err != nil {
			return
		}
		if v, ok := doc.Find(`meta[property="article:published_time"]`).Attr("content"); ok {
			published = v
			return
		}
		if v, ok := doc.Find(`meta[itemprop="datePublished"]`).Attr("content"); ok {
			published = v
			return
		}
		if v, ok := doc.Find("time[datetime]").Attr("datetime"); ok {
			published = v
		}
	})

	if err := c.Visit(articleURL); err != nil {
		logger.Warn(ctx, "article timestamp fetch failed", "url", articleURL, "error", err.Error())
		return ""
	}
	return published
}

// ricBase strips the exchange suffix from a RIC: "TATAMOTORS.NS" scrapes as
// "TATAMOTORS".
func ricBase(ric string) string {
	if i := strings.IndexByte(ric, '.'); i > 0 {
		return ric[:i]
	}
	return ric
}

func hostOf(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
