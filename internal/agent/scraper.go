package agent

import (
	"strings"

	"github.com/gocolly/colly/v2"
	"github.com/mmcdole/gofeed"
)

type NewsItem struct {
	Title     string
	Link      string
	GUID      string
	Published string
}

// FetchRSS pulls the newest items from a feed, capped so one run never
// floods the site.
func FetchRSS(url string, limit int) ([]NewsItem, error) {
	fp := gofeed.NewParser()
	feed, err := fp.ParseURL(url)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > len(feed.Items) {
		limit = len(feed.Items)
	}

	items := make([]NewsItem, 0, limit)
	for i := 0; i < limit; i++ {
		item := feed.Items[i]
		items = append(items, NewsItem{
			Title:     item.Title,
			Link:      item.Link,
			GUID:      item.GUID,
			Published: item.Published,
		})
	}
	return items, nil
}

// ScrapeContent extracts the article body from a page. Selector list covers
// the common article containers of the gaming press.
func ScrapeContent(url string) (string, error) {
	c := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)

	var contentBuilder strings.Builder

	c.OnHTML("article, .article-content, .entry-content, .post-content, #main-content", func(e *colly.HTMLElement) {
		e.ForEach("p", func(_ int, el *colly.HTMLElement) {
			text := strings.TrimSpace(el.Text)
			// Skip nav crumbs and bylines, keep real paragraphs.
			if len(text) > 50 {
				contentBuilder.WriteString(text)
				contentBuilder.WriteString("\n\n")
			}
		})
	})

	if err := c.Visit(url); err != nil {
		return "", err
	}

	return contentBuilder.String(), nil
}
