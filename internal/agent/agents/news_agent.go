package agents

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"knightgaming.gg/backend/internal/agent"
	"knightgaming.gg/backend/internal/entity"
	newsService "knightgaming.gg/backend/internal/modules/news/service"
)

const processedURLsKey = "agent:processed_urls"

// defaultFeeds are used when NEWS_FEED_URLS is not configured.
var defaultFeeds = []string{
	"https://www.gamespot.com/feeds/news/",
	"https://www.pcgamer.com/rss/",
}

// NewsAgent imports articles from the configured RSS feeds: fetch, scrape the
// full body, have the LLM rewrite it as an original piece, publish.
type NewsAgent struct {
	news        newsService.NewsService
	redisClient *redis.Client
}

func NewNewsAgent(news newsService.NewsService, redisClient *redis.Client) *NewsAgent {
	return &NewsAgent{news: news, redisClient: redisClient}
}

func (a *NewsAgent) GetName() string { return "news-agent" }

// Morning and evening editions.
func (a *NewsAgent) GetSchedule() string { return "0 7,19 * * *" }

func (a *NewsAgent) feeds() []string {
	if raw := os.Getenv("NEWS_FEED_URLS"); raw != "" {
		return strings.Split(raw, ",")
	}
	return defaultFeeds
}

func (a *NewsAgent) Execute(ctx context.Context) error {
	llm, err := agent.NewLLMClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to init LLM: %w", err)
	}
	defer llm.Close()

	for _, feedURL := range a.feeds() {
		items, err := agent.FetchRSS(strings.TrimSpace(feedURL), 5)
		if err != nil {
			log.Printf("news-agent: failed to fetch feed %s: %v", feedURL, err)
			continue
		}

		for _, item := range items {
			if a.alreadyProcessed(ctx, item.Link) {
				continue
			}

			log.Printf("news-agent: processing %q", item.Title)
			content, err := agent.ScrapeContent(item.Link)
			if err != nil {
				log.Printf("news-agent: failed to scrape %s: %v", item.Link, err)
				continue
			}
			if len(content) < 200 {
				log.Printf("news-agent: body too short for %s, skipping", item.Link)
				continue
			}

			title, body, summary, err := llm.RewriteArticle(ctx, item.Title, content)
			if err != nil {
				log.Printf("news-agent: rewrite failed for %s: %v", item.Link, err)
				continue
			}

			externalID := item.GUID
			if externalID == "" {
				externalID = item.Link
			}

			article := &entity.NewsArticle{
				Title:      title,
				Summary:    summary,
				Content:    body + fmt.Sprintf("\n<p>Source: <a href=%q>%s</a></p>", item.Link, item.Title),
				Category:   "news",
				SourceType: entity.SourceRSS,
				SourceURL:  item.Link,
				ExternalID: externalID,
				Status:     entity.ArticleStatusPublished,
			}

			created, err := a.news.ImportExternal(ctx, article)
			if err != nil {
				log.Printf("news-agent: failed to publish %q: %v", title, err)
				continue
			}
			if created {
				log.Printf("news-agent: published %q", title)
			}

			a.markProcessed(ctx, item.Link)

			// Be polite to the sources and the LLM quota.
			time.Sleep(10 * time.Second)
		}
	}

	return nil
}

func (a *NewsAgent) alreadyProcessed(ctx context.Context, link string) bool {
	if a.redisClient == nil {
		return false
	}
	processed, err := a.redisClient.SIsMember(ctx, processedURLsKey, link).Result()
	return err == nil && processed
}

func (a *NewsAgent) markProcessed(ctx context.Context, link string) {
	if a.redisClient != nil {
		a.redisClient.SAdd(ctx, processedURLsKey, link)
	}
}
