package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"knightgaming.gg/backend/internal/agent"
	"knightgaming.gg/backend/internal/entity"
	"knightgaming.gg/backend/internal/modules/ai/dto"
	"knightgaming.gg/backend/internal/modules/ai/repository"
	gameRepo "knightgaming.gg/backend/internal/modules/game/repository"
	newsRepo "knightgaming.gg/backend/internal/modules/news/repository"
	"knightgaming.gg/backend/pkg/apperror"
)

const (
	summaryCacheTTL = 7 * 24 * time.Hour
	trendCacheTTL   = time.Hour
)

type AIService interface {
	SummarizeText(ctx context.Context, req dto.SummarizeRequest) (*dto.SummaryResponse, error)
	SummarizeArticle(ctx context.Context, articleID uuid.UUID) (*dto.SummaryResponse, error)
	TrendHighlight(ctx context.Context, gameID uuid.UUID) (*dto.TrendHighlightResponse, error)
	SocialPosts(ctx context.Context, articleID uuid.UUID) (*dto.SocialPostsResponse, error)
}

type aiService struct {
	cache repository.AICacheRepository
	news  newsRepo.NewsRepository
	games gameRepo.GameRepository
	llm   *agent.LLMClient
}

func NewAIService(
	cache repository.AICacheRepository,
	news newsRepo.NewsRepository,
	games gameRepo.GameRepository,
	llm *agent.LLMClient,
) AIService {
	return &aiService{cache: cache, news: news, games: games, llm: llm}
}

// inputHash keys the cache on summary type plus input so the same text asked
// for in different shapes never collides.
func inputHash(summaryType, input string) string {
	sum := md5.Sum([]byte(summaryType + ":" + input))
	return hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func (s *aiService) lookup(ctx context.Context, hash string) *entity.AISummaryCache {
	entry, err := s.cache.FindByHash(ctx, hash)
	if err != nil || !entry.Valid() {
		return nil
	}
	if err := s.cache.Touch(ctx, entry.ID); err != nil {
		log.Printf("ai: failed to touch cache row %d: %v", entry.ID, err)
	}
	return entry
}

func (s *aiService) store(ctx context.Context, entry *entity.AISummaryCache) {
	if err := s.cache.Create(ctx, entry); err != nil {
		log.Printf("ai: failed to store cache entry: %v", err)
	}
}

func (s *aiService) SummarizeText(ctx context.Context, req dto.SummarizeRequest) (*dto.SummaryResponse, error) {
	hash := inputHash(entity.SummaryTypeSummary, req.Text)
	if entry := s.lookup(ctx, hash); entry != nil {
		return &dto.SummaryResponse{Summary: entry.Output, Cached: true, Model: entry.Model}, nil
	}

	summary, err := s.llm.Summarize(ctx, req.Text, req.MaxWords)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrInternal, err)
	}

	s.store(ctx, &entity.AISummaryCache{
		ContentType:  "text",
		InputHash:    hash,
		InputText:    truncate(req.Text, 1000),
		SummaryType:  entity.SummaryTypeSummary,
		Output:       summary,
		Model:        s.llm.ModelName(),
		LastAccessed: time.Now(),
		ExpiresAt:    time.Now().Add(summaryCacheTTL),
	})

	return &dto.SummaryResponse{Summary: summary, Model: s.llm.ModelName()}, nil
}

// SummarizeArticle generates (or reuses) a summary and stores it back on the
// article row so later readers get it for free.
func (s *aiService) SummarizeArticle(ctx context.Context, articleID uuid.UUID) (*dto.SummaryResponse, error) {
	article, err := s.news.FindByID(ctx, articleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: article not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	if article.AISummary != nil && *article.AISummary != "" {
		return &dto.SummaryResponse{Summary: *article.AISummary, Cached: true, Model: article.AISummaryModel}, nil
	}

	hash := inputHash(entity.SummaryTypeSummary, article.Content)
	var summary string
	cached := false

	if entry := s.lookup(ctx, hash); entry != nil {
		summary = entry.Output
		cached = true
	} else {
		summary, err = s.llm.Summarize(ctx, article.Content, 80)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperror.ErrInternal, err)
		}
		s.store(ctx, &entity.AISummaryCache{
			ContentType:  "article",
			ContentID:    article.ID.String(),
			InputHash:    hash,
			InputText:    truncate(article.Content, 1000),
			SummaryType:  entity.SummaryTypeSummary,
			Output:       summary,
			Model:        s.llm.ModelName(),
			LastAccessed: time.Now(),
			ExpiresAt:    time.Now().Add(summaryCacheTTL),
		})
	}

	now := time.Now()
	article.AISummary = &summary
	article.AISummaryGeneratedAt = &now
	article.AISummaryModel = s.llm.ModelName()
	if err := s.news.Update(ctx, article); err != nil {
		log.Printf("ai: failed to persist summary on article %s: %v", article.ID, err)
	}

	return &dto.SummaryResponse{Summary: summary, Cached: cached, Model: s.llm.ModelName()}, nil
}

func (s *aiService) TrendHighlight(ctx context.Context, gameID uuid.UUID) (*dto.TrendHighlightResponse, error) {
	game, err := s.games.FindByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: game not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	input := fmt.Sprintf("%s|%d|%d|%d", game.ID, game.CurrentPlayers, game.PeakPlayers, game.AveragePlayers)
	hash := inputHash(entity.SummaryTypeTrendHighlight, input)
	if entry := s.lookup(ctx, hash); entry != nil {
		return &dto.TrendHighlightResponse{GameID: game.ID.String(), Highlight: entry.Output, Cached: true}, nil
	}

	highlight, err := s.llm.TrendHighlight(ctx, game.Name, game.CurrentPlayers, game.PeakPlayers, game.AveragePlayers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrInternal, err)
	}

	s.store(ctx, &entity.AISummaryCache{
		ContentType:  "game",
		ContentID:    game.ID.String(),
		InputHash:    hash,
		InputText:    input,
		SummaryType:  entity.SummaryTypeTrendHighlight,
		Output:       highlight,
		Model:        s.llm.ModelName(),
		LastAccessed: time.Now(),
		ExpiresAt:    time.Now().Add(trendCacheTTL),
	})

	return &dto.TrendHighlightResponse{GameID: game.ID.String(), Highlight: highlight}, nil
}

func (s *aiService) SocialPosts(ctx context.Context, articleID uuid.UUID) (*dto.SocialPostsResponse, error) {
	article, err := s.news.FindByID(ctx, articleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: article not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	hash := inputHash(entity.SummaryTypeSocial, article.Title+"\n"+article.Summary)
	if entry := s.lookup(ctx, hash); entry != nil {
		posts := entry.Alternatives
		if len(posts) == 0 && entry.Output != "" {
			posts = []string{entry.Output}
		}
		return &dto.SocialPostsResponse{ArticleID: article.ID.String(), Posts: posts, Cached: true}, nil
	}

	posts, err := s.llm.SocialPosts(ctx, article.Title, article.Summary)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrInternal, err)
	}

	entry := &entity.AISummaryCache{
		ContentType:  "article",
		ContentID:    article.ID.String(),
		InputHash:    hash,
		InputText:    truncate(article.Title+"\n"+article.Summary, 1000),
		SummaryType:  entity.SummaryTypeSocial,
		Alternatives: posts,
		Model:        s.llm.ModelName(),
		LastAccessed: time.Now(),
		ExpiresAt:    time.Now().Add(summaryCacheTTL),
	}
	if len(posts) > 0 {
		entry.Output = posts[0]
	}
	s.store(ctx, entry)

	return &dto.SocialPostsResponse{ArticleID: article.ID.String(), Posts: posts}, nil
}
