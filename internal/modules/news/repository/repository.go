package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"knightgaming.gg/backend/internal/entity"
)

type ListFilter struct {
	Category string
	Tag      string
	GameID   string
	Status   string
	Limit    int
	Offset   int
}

type NewsRepository interface {
	Create(ctx context.Context, article *entity.NewsArticle) error
	Update(ctx context.Context, article *entity.NewsArticle) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.NewsArticle, error)
	FindBySlug(ctx context.Context, slug string) (*entity.NewsArticle, error)
	FindByExternalID(ctx context.Context, externalID string) (*entity.NewsArticle, error)
	List(ctx context.Context, filter ListFilter) ([]entity.NewsArticle, int64, error)
	Headlines(ctx context.Context, limit int) ([]entity.NewsArticle, error)
	Trending(ctx context.Context, since time.Time, limit int) ([]entity.NewsArticle, error)
	AddViews(ctx context.Context, id uuid.UUID, delta int) error
	IncrementShares(ctx context.Context, id uuid.UUID) error
	IncrementLikes(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type newsRepository struct {
	db *gorm.DB
}

func NewNewsRepository(db *gorm.DB) NewsRepository {
	return &newsRepository{db: db}
}

func (r *newsRepository) Create(ctx context.Context, article *entity.NewsArticle) error {
	return r.db.WithContext(ctx).Create(article).Error
}

func (r *newsRepository) Update(ctx context.Context, article *entity.NewsArticle) error {
	return r.db.WithContext(ctx).Save(article).Error
}

func (r *newsRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.NewsArticle, error) {
	var article entity.NewsArticle
	if err := r.db.WithContext(ctx).First(&article, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *newsRepository) FindBySlug(ctx context.Context, slug string) (*entity.NewsArticle, error) {
	var article entity.NewsArticle
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&article).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *newsRepository) FindByExternalID(ctx context.Context, externalID string) (*entity.NewsArticle, error) {
	var article entity.NewsArticle
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&article).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *newsRepository) List(ctx context.Context, filter ListFilter) ([]entity.NewsArticle, int64, error) {
	var articles []entity.NewsArticle
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.NewsArticle{})

	status := filter.Status
	if status == "" {
		status = entity.ArticleStatusPublished
	}
	query = query.Where("status = ?", status)

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Tag != "" {
		query = query.Where("tags::text ILIKE ?", "%"+filter.Tag+"%")
	}
	if filter.GameID != "" {
		query = query.Where("game_ids::text ILIKE ?", "%"+filter.GameID+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("published_at DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&articles).Error
	return articles, total, err
}

func (r *newsRepository) Headlines(ctx context.Context, limit int) ([]entity.NewsArticle, error) {
	var articles []entity.NewsArticle
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.ArticleStatusPublished).
		Order("published_at DESC").
		Limit(limit).
		Find(&articles).Error
	return articles, err
}

func (r *newsRepository) Trending(ctx context.Context, since time.Time, limit int) ([]entity.NewsArticle, error) {
	var articles []entity.NewsArticle
	err := r.db.WithContext(ctx).
		Where("status = ? AND published_at >= ?", entity.ArticleStatusPublished, since).
		Order("views DESC").
		Limit(limit).
		Find(&articles).Error
	return articles, err
}

func (r *newsRepository) AddViews(ctx context.Context, id uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).Model(&entity.NewsArticle{}).
		Where("id = ?", id).
		Update("views", gorm.Expr("views + ?", delta)).Error
}

func (r *newsRepository) IncrementShares(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entity.NewsArticle{}).
		Where("id = ?", id).
		Update("shares", gorm.Expr("shares + 1")).Error
}

func (r *newsRepository) IncrementLikes(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entity.NewsArticle{}).
		Where("id = ?", id).
		Update("likes", gorm.Expr("likes + 1")).Error
}

func (r *newsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.NewsArticle{}, "id = ?", id).Error
}

func (r *newsRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.NewsArticle{}).Count(&count).Error
	return count, err
}
