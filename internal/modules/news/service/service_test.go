package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"knightgaming.gg/backend/internal/entity"
	"knightgaming.gg/backend/internal/modules/news/dto"
	"knightgaming.gg/backend/internal/modules/news/repository"
	searchService "knightgaming.gg/backend/internal/modules/search/service"
	"knightgaming.gg/backend/pkg/apperror"
)

type fakeNewsRepo struct {
	articles map[uuid.UUID]*entity.NewsArticle
	views    map[uuid.UUID]int
}

func newFakeNewsRepo() *fakeNewsRepo {
	return &fakeNewsRepo{
		articles: make(map[uuid.UUID]*entity.NewsArticle),
		views:    make(map[uuid.UUID]int),
	}
}

func (r *fakeNewsRepo) Create(ctx context.Context, article *entity.NewsArticle) error {
	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}
	cp := *article
	r.articles[article.ID] = &cp
	return nil
}

func (r *fakeNewsRepo) Update(ctx context.Context, article *entity.NewsArticle) error {
	if _, ok := r.articles[article.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *article
	r.articles[article.ID] = &cp
	return nil
}

func (r *fakeNewsRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.NewsArticle, error) {
	if a, ok := r.articles[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeNewsRepo) FindBySlug(ctx context.Context, slug string) (*entity.NewsArticle, error) {
	for _, a := range r.articles {
		if a.Slug == slug {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeNewsRepo) FindByExternalID(ctx context.Context, externalID string) (*entity.NewsArticle, error) {
	for _, a := range r.articles {
		if a.ExternalID == externalID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeNewsRepo) List(ctx context.Context, filter repository.ListFilter) ([]entity.NewsArticle, int64, error) {
	var out []entity.NewsArticle
	for _, a := range r.articles {
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

func (r *fakeNewsRepo) Headlines(ctx context.Context, limit int) ([]entity.NewsArticle, error) {
	return nil, nil
}

func (r *fakeNewsRepo) Trending(ctx context.Context, since time.Time, limit int) ([]entity.NewsArticle, error) {
	return nil, nil
}

func (r *fakeNewsRepo) AddViews(ctx context.Context, id uuid.UUID, delta int) error {
	r.views[id] += delta
	return nil
}

func (r *fakeNewsRepo) IncrementShares(ctx context.Context, id uuid.UUID) error { return nil }
func (r *fakeNewsRepo) IncrementLikes(ctx context.Context, id uuid.UUID) error  { return nil }

func (r *fakeNewsRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.articles, id)
	return nil
}

func (r *fakeNewsRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.articles)), nil
}

type fakeSearch struct {
	indexed map[uuid.UUID]bool
}

func newFakeSearch() *fakeSearch {
	return &fakeSearch{indexed: make(map[uuid.UUID]bool)}
}

func (s *fakeSearch) IndexGame(ctx context.Context, game *entity.Game) error { return nil }
func (s *fakeSearch) DeleteGame(ctx context.Context, id uuid.UUID) error     { return nil }

func (s *fakeSearch) IndexArticle(ctx context.Context, article *entity.NewsArticle) error {
	s.indexed[article.ID] = true
	return nil
}

func (s *fakeSearch) DeleteArticle(ctx context.Context, id uuid.UUID) error {
	delete(s.indexed, id)
	return nil
}

func (s *fakeSearch) SearchGames(ctx context.Context, query string, limit int64) ([]searchService.SearchHit, error) {
	return nil, nil
}

func (s *fakeSearch) SearchNews(ctx context.Context, query string, limit int64, includePremium bool) ([]searchService.SearchHit, error) {
	return nil, nil
}

func newsEnv() (NewsService, *fakeNewsRepo, *fakeSearch) {
	repo := newFakeNewsRepo()
	search := newFakeSearch()
	return NewNewsService(repo, search, nil), repo, search
}

func premiumViewer() *entity.User {
	return &entity.User{
		ID:                 uuid.New(),
		SubscriptionTier:   entity.TierPremium,
		SubscriptionStatus: entity.SubscriptionStatusActive,
	}
}

func TestGetArticle_PremiumGating(t *testing.T) {
	svc, repo, _ := newsEnv()
	ctx := context.Background()

	summary := "the short version"
	article := &entity.NewsArticle{
		Title:     "Exclusive interview",
		Slug:      "exclusive-interview",
		Content:   "full body text",
		AISummary: &summary,
		IsPremium: true,
		Status:    entity.ArticleStatusPublished,
	}
	require.NoError(t, repo.Create(ctx, article))

	// Anonymous reader gets the teaser only.
	view, err := svc.GetArticle(ctx, article.ID.String(), nil)
	require.NoError(t, err)
	require.True(t, view.ContentLocked)
	require.Empty(t, view.Article.Content)
	require.Nil(t, view.Article.AISummary)
	require.Equal(t, "Exclusive interview", view.Article.Title)

	// Free account, same treatment.
	view, err = svc.GetArticle(ctx, article.ID.String(), &entity.User{ID: uuid.New()})
	require.NoError(t, err)
	require.True(t, view.ContentLocked)

	// Premium subscriber reads the body.
	view, err = svc.GetArticle(ctx, article.ID.String(), premiumViewer())
	require.NoError(t, err)
	require.False(t, view.ContentLocked)
	require.Equal(t, "full body text", view.Article.Content)

	// The gate never mutates the stored row.
	stored, _ := repo.FindByID(ctx, article.ID)
	require.Equal(t, "full body text", stored.Content)
}

func TestGetArticle_BySlugAndViews(t *testing.T) {
	svc, repo, _ := newsEnv()
	ctx := context.Background()

	article := &entity.NewsArticle{
		Title:  "Patch 2.1 notes",
		Slug:   "patch-2-1-notes",
		Status: entity.ArticleStatusPublished,
	}
	require.NoError(t, repo.Create(ctx, article))

	view, err := svc.GetArticle(ctx, "patch-2-1-notes", nil)
	require.NoError(t, err)
	require.Equal(t, article.ID, view.Article.ID)
	require.Equal(t, 1, repo.views[article.ID], "view recorded straight to the repo without redis")
}

func TestGetArticle_DraftHiddenFromReaders(t *testing.T) {
	svc, repo, _ := newsEnv()
	ctx := context.Background()

	article := &entity.NewsArticle{
		Title:  "Unfinished draft",
		Slug:   "unfinished-draft",
		Status: entity.ArticleStatusDraft,
	}
	require.NoError(t, repo.Create(ctx, article))

	_, err := svc.GetArticle(ctx, article.ID.String(), nil)
	require.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.GetArticle(ctx, article.ID.String(), &entity.User{Role: entity.RoleUser})
	require.ErrorIs(t, err, apperror.ErrNotFound)

	view, err := svc.GetArticle(ctx, article.ID.String(), &entity.User{Role: entity.RoleModerator})
	require.NoError(t, err)
	require.Equal(t, article.ID, view.Article.ID)
}

func TestCreateArticle_SlugAndIndex(t *testing.T) {
	svc, _, search := newsEnv()
	ctx := context.Background()

	authorID := uuid.New()
	article, err := svc.CreateArticle(ctx, &authorID, "jwriter", dto.CreateArticleRequest{
		Title:   "Big Expansion Announced!",
		Summary: "It is big.",
		Content: "Full coverage of the announcement.",
	})
	require.NoError(t, err)
	require.Equal(t, "big-expansion-announced", article.Slug)
	require.Equal(t, "news", article.Category)
	require.Equal(t, "jwriter", article.Author)
	require.Equal(t, entity.ArticleStatusPublished, article.Status)
	require.True(t, search.indexed[article.ID])

	// A title collision gets a deduplicated slug, not an error.
	second, err := svc.CreateArticle(ctx, &authorID, "jwriter", dto.CreateArticleRequest{
		Title:   "Big Expansion Announced!",
		Summary: "Again.",
		Content: "More coverage.",
	})
	require.NoError(t, err)
	require.NotEqual(t, article.Slug, second.Slug)
}

func TestUpdateArticle_ContentChangeDropsAISummary(t *testing.T) {
	svc, repo, search := newsEnv()
	ctx := context.Background()

	summary := "stale summary"
	now := time.Now()
	article := &entity.NewsArticle{
		Title:                "Review roundup",
		Slug:                 "review-roundup",
		Content:              "old content",
		Status:               entity.ArticleStatusPublished,
		AISummary:            &summary,
		AISummaryGeneratedAt: &now,
	}
	require.NoError(t, repo.Create(ctx, article))

	content := "completely new content"
	updated, err := svc.UpdateArticle(ctx, article.ID, dto.UpdateArticleRequest{Content: &content})
	require.NoError(t, err)
	require.Nil(t, updated.AISummary)
	require.Nil(t, updated.AISummaryGeneratedAt)
	require.True(t, search.indexed[article.ID])

	// Unpublishing pulls it out of the search index.
	archived := entity.ArticleStatusArchived
	_, err = svc.UpdateArticle(ctx, article.ID, dto.UpdateArticleRequest{Status: &archived})
	require.NoError(t, err)
	require.False(t, search.indexed[article.ID])
}

func TestImportExternal_DedupesByExternalID(t *testing.T) {
	svc, repo, _ := newsEnv()
	ctx := context.Background()

	incoming := &entity.NewsArticle{
		Title:      "Studio announces sequel",
		Content:    "scraped body",
		ExternalID: "feed-guid-1",
		SourceType: entity.SourceRSS,
		Status:     entity.ArticleStatusPublished,
	}
	created, err := svc.ImportExternal(ctx, incoming)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "studio-announces-sequel", incoming.Slug)

	again := &entity.NewsArticle{
		Title:      "Studio announces sequel",
		Content:    "scraped body",
		ExternalID: "feed-guid-1",
	}
	created, err = svc.ImportExternal(ctx, again)
	require.NoError(t, err)
	require.False(t, created, "same external id is skipped")

	count, _ := repo.Count(ctx)
	require.Equal(t, int64(1), count)
}
