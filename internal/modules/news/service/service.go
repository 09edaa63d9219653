package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"knightgaming.gg/backend/internal/entity"
	"knightgaming.gg/backend/internal/modules/news/dto"
	"knightgaming.gg/backend/internal/modules/news/repository"
	searchService "knightgaming.gg/backend/internal/modules/search/service"
	"knightgaming.gg/backend/pkg/apperror"
	pkgdto "knightgaming.gg/backend/pkg/dto"
	"knightgaming.gg/backend/pkg/slug"
)

const (
	headlinesCacheKey = "news:headlines"
	headlinesCacheTTL = 5 * time.Minute
	pendingViewsKey   = "pending:article_views"
	trendingWindow    = 7 * 24 * time.Hour
)

type NewsService interface {
	ListArticles(ctx context.Context, q dto.NewsListQuery) (*dto.NewsListResponse, error)
	GetArticle(ctx context.Context, idOrSlug string, viewer *entity.User) (*dto.ArticleView, error)
	GetHeadlines(ctx context.Context, limit int) ([]entity.NewsArticle, error)
	GetTrending(ctx context.Context, limit int) ([]entity.NewsArticle, error)
	CreateArticle(ctx context.Context, authorID *uuid.UUID, authorName string, req dto.CreateArticleRequest) (*entity.NewsArticle, error)
	UpdateArticle(ctx context.Context, id uuid.UUID, req dto.UpdateArticleRequest) (*entity.NewsArticle, error)
	DeleteArticle(ctx context.Context, id uuid.UUID) error
	LikeArticle(ctx context.Context, id uuid.UUID) error
	ShareArticle(ctx context.Context, id uuid.UUID) error
	ImportExternal(ctx context.Context, article *entity.NewsArticle) (bool, error)
	StartViewSyncWorker(ctx context.Context)
}

type newsService struct {
	repo        repository.NewsRepository
	search      searchService.SearchService
	redisClient *redis.Client
}

func NewNewsService(repo repository.NewsRepository, search searchService.SearchService, redisClient *redis.Client) NewsService {
	return &newsService{
		repo:        repo,
		search:      search,
		redisClient: redisClient,
	}
}

func (s *newsService) ListArticles(ctx context.Context, q dto.NewsListQuery) (*dto.NewsListResponse, error) {
	page, limit := pkgdto.NormalizePage(q.Page, q.Limit, 20, 50)

	articles, total, err := s.repo.List(ctx, repository.ListFilter{
		Category: q.Category,
		Tag:      q.Tag,
		GameID:   q.GameID,
		Limit:    limit,
		Offset:   (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}

	return &dto.NewsListResponse{
		Articles: articles,
		Meta:     pkgdto.NewPaginationMeta(page, limit, total),
	}, nil
}

func (s *newsService) GetArticle(ctx context.Context, idOrSlug string, viewer *entity.User) (*dto.ArticleView, error) {
	var article *entity.NewsArticle
	var err error

	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		article, err = s.repo.FindByID(ctx, id)
	} else {
		article, err = s.repo.FindBySlug(ctx, idOrSlug)
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: article not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	if article.Status != entity.ArticleStatusPublished {
		isStaff := viewer != nil && (viewer.Role == entity.RoleAdmin || viewer.Role == entity.RoleModerator)
		if !isStaff {
			return nil, fmt.Errorf("%w: article not found", apperror.ErrNotFound)
		}
	}

	view := &dto.ArticleView{Article: article}

	if article.IsPremium && (viewer == nil || !viewer.IsPremium()) {
		// Keep the teaser, hide the body.
		stripped := *article
		stripped.Content = ""
		stripped.AISummary = nil
		view.Article = &stripped
		view.ContentLocked = true
	}

	s.recordView(ctx, article.ID, viewer)

	return view, nil
}

// recordView counts at most one view per reader per hour, batching the
// increments through Redis. Without Redis it falls back to a direct update.
func (s *newsService) recordView(ctx context.Context, articleID uuid.UUID, viewer *entity.User) {
	if s.redisClient == nil {
		if err := s.repo.AddViews(ctx, articleID, 1); err != nil {
			log.Printf("news: failed to count view for %s: %v", articleID, err)
		}
		return
	}

	reader := "anon"
	if viewer != nil {
		reader = viewer.ID.String()
	}
	dedupeKey := fmt.Sprintf("article:user_view:%s:%s", articleID, reader)

	exists, err := s.redisClient.Exists(ctx, dedupeKey).Result()
	if err != nil || exists == 1 {
		return
	}

	viewKey := fmt.Sprintf("article:views:%s", articleID)
	if _, err := s.redisClient.Incr(ctx, viewKey).Result(); err != nil {
		return
	}
	s.redisClient.SAdd(ctx, pendingViewsKey, articleID.String())
	s.redisClient.SetEx(ctx, dedupeKey, "viewed", time.Hour)
}

func (s *newsService) GetHeadlines(ctx context.Context, limit int) ([]entity.NewsArticle, error) {
	if limit < 1 || limit > 20 {
		limit = 10
	}
	cacheKey := fmt.Sprintf("%s:%d", headlinesCacheKey, limit)

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var articles []entity.NewsArticle
			if json.Unmarshal([]byte(cached), &articles) == nil {
				return articles, nil
			}
		}
	}

	articles, err := s.repo.Headlines(ctx, limit)
	if err != nil {
		return nil, err
	}

	if s.redisClient != nil {
		if payload, err := json.Marshal(articles); err == nil {
			s.redisClient.SetEx(ctx, cacheKey, payload, headlinesCacheTTL)
		}
	}

	return articles, nil
}

func (s *newsService) GetTrending(ctx context.Context, limit int) ([]entity.NewsArticle, error) {
	if limit < 1 || limit > 20 {
		limit = 10
	}
	return s.repo.Trending(ctx, time.Now().Add(-trendingWindow), limit)
}

func (s *newsService) CreateArticle(ctx context.Context, authorID *uuid.UUID, authorName string, req dto.CreateArticleRequest) (*entity.NewsArticle, error) {
	articleSlug := slug.Make(req.Title)
	if existing, _ := s.repo.FindBySlug(ctx, articleSlug); existing != nil {
		articleSlug = fmt.Sprintf("%s-%d", articleSlug, time.Now().Unix())
	}

	category := req.Category
	if category == "" {
		category = "news"
	}

	article := &entity.NewsArticle{
		Title:         req.Title,
		Slug:          articleSlug,
		Summary:       req.Summary,
		Content:       req.Content,
		Category:      category,
		Tags:          req.Tags,
		GameIDs:       req.GameIDs,
		FeaturedImage: req.FeaturedImage,
		VideoURL:      req.VideoURL,
		IsPremium:     req.IsPremium,
		SourceType:    entity.SourceManual,
		Status:        entity.ArticleStatusPublished,
		AuthorID:      authorID,
	}
	if authorName != "" {
		article.Author = authorName
	}
	if req.PublishedAt != nil {
		article.PublishedAt = *req.PublishedAt
	}

	if err := s.repo.Create(ctx, article); err != nil {
		return nil, err
	}

	if err := s.search.IndexArticle(ctx, article); err != nil {
		log.Printf("news: failed to index %s in search: %v", article.Slug, err)
	}
	s.invalidateHeadlines(ctx)

	return article, nil
}

func (s *newsService) UpdateArticle(ctx context.Context, id uuid.UUID, req dto.UpdateArticleRequest) (*entity.NewsArticle, error) {
	article, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: article not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	if req.Title != nil && *req.Title != article.Title {
		article.Title = *req.Title
		article.Slug = slug.Make(*req.Title)
	}
	if req.Summary != nil {
		article.Summary = *req.Summary
	}
	if req.Content != nil {
		article.Content = *req.Content
		// Stored summary no longer matches the content.
		article.AISummary = nil
		article.AISummaryGeneratedAt = nil
	}
	if req.Category != nil {
		article.Category = *req.Category
	}
	if req.Tags != nil {
		article.Tags = req.Tags
	}
	if req.GameIDs != nil {
		article.GameIDs = req.GameIDs
	}
	if req.FeaturedImage != nil {
		article.FeaturedImage = *req.FeaturedImage
	}
	if req.VideoURL != nil {
		article.VideoURL = *req.VideoURL
	}
	if req.IsPremium != nil {
		article.IsPremium = *req.IsPremium
	}
	if req.Status != nil {
		article.Status = *req.Status
	}

	if err := s.repo.Update(ctx, article); err != nil {
		return nil, err
	}

	if article.Status == entity.ArticleStatusPublished {
		if err := s.search.IndexArticle(ctx, article); err != nil {
			log.Printf("news: failed to reindex %s in search: %v", article.Slug, err)
		}
	} else {
		if err := s.search.DeleteArticle(ctx, article.ID); err != nil {
			log.Printf("news: failed to deindex %s: %v", article.Slug, err)
		}
	}
	s.invalidateHeadlines(ctx)

	return article, nil
}

func (s *newsService) DeleteArticle(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: article not found", apperror.ErrNotFound)
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.search.DeleteArticle(ctx, id); err != nil {
		log.Printf("news: failed to deindex %s: %v", id, err)
	}
	s.invalidateHeadlines(ctx)

	return nil
}

func (s *newsService) LikeArticle(ctx context.Context, id uuid.UUID) error {
	return s.repo.IncrementLikes(ctx, id)
}

func (s *newsService) ShareArticle(ctx context.Context, id uuid.UUID) error {
	return s.repo.IncrementShares(ctx, id)
}

// ImportExternal persists an agent-sourced article, skipping anything already
// imported under the same external id. Returns whether a row was created.
func (s *newsService) ImportExternal(ctx context.Context, article *entity.NewsArticle) (bool, error) {
	if article.ExternalID != "" {
		if existing, _ := s.repo.FindByExternalID(ctx, article.ExternalID); existing != nil {
			return false, nil
		}
	}

	if article.Slug == "" {
		article.Slug = slug.Make(article.Title)
	}
	if existing, _ := s.repo.FindBySlug(ctx, article.Slug); existing != nil {
		article.Slug = fmt.Sprintf("%s-%d", article.Slug, time.Now().Unix())
	}

	if err := s.repo.Create(ctx, article); err != nil {
		return false, err
	}

	if err := s.search.IndexArticle(ctx, article); err != nil {
		log.Printf("news: failed to index imported article %s: %v", article.Slug, err)
	}
	s.invalidateHeadlines(ctx)

	return true, nil
}

func (s *newsService) invalidateHeadlines(ctx context.Context) {
	if s.redisClient == nil {
		return
	}
	iter := s.redisClient.Scan(ctx, 0, headlinesCacheKey+":*", 50).Iterator()
	for iter.Next(ctx) {
		s.redisClient.Del(ctx, iter.Val())
	}
}

// StartViewSyncWorker drains the batched Redis view counters into Postgres
// once a minute. Blocks until ctx is cancelled.
func (s *newsService) StartViewSyncWorker(ctx context.Context) {
	if s.redisClient == nil {
		return
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.syncViewsToDB(ctx)
		}
	}
}

func (s *newsService) syncViewsToDB(ctx context.Context) {
	articleIDs, err := s.redisClient.SMembers(ctx, pendingViewsKey).Result()
	if err != nil {
		log.Printf("news: failed to read pending views: %v", err)
		return
	}
	if len(articleIDs) == 0 {
		return
	}

	for _, idStr := range articleIDs {
		articleID, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}

		viewKey := fmt.Sprintf("article:views:%s", articleID)
		countStr, err := s.redisClient.Get(ctx, viewKey).Result()
		if err != nil {
			if err != redis.Nil {
				log.Printf("news: failed to read view counter for %s: %v", articleID, err)
			}
			continue
		}

		count, err := strconv.Atoi(countStr)
		if err != nil || count <= 0 {
			continue
		}

		if err := s.repo.AddViews(ctx, articleID, count); err != nil {
			log.Printf("news: failed to flush views for %s: %v", articleID, err)
			continue
		}
		s.redisClient.Del(ctx, viewKey)
	}

	s.redisClient.Del(ctx, pendingViewsKey)
}
