package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"knightgaming.gg/backend/internal/entity"
)

type AICacheRepository interface {
	Create(ctx context.Context, entry *entity.AISummaryCache) error
	FindByHash(ctx context.Context, hash string) (*entity.AISummaryCache, error)
	Touch(ctx context.Context, id uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type aiCacheRepository struct {
	db *gorm.DB
}

func NewAICacheRepository(db *gorm.DB) AICacheRepository {
	return &aiCacheRepository{db: db}
}

func (r *aiCacheRepository) Create(ctx context.Context, entry *entity.AISummaryCache) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *aiCacheRepository) FindByHash(ctx context.Context, hash string) (*entity.AISummaryCache, error) {
	var entry entity.AISummaryCache
	if err := r.db.WithContext(ctx).Where("input_hash = ?", hash).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *aiCacheRepository) Touch(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&entity.AISummaryCache{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"hit_count":     gorm.Expr("hit_count + 1"),
			"last_accessed": time.Now(),
		}).Error
}

func (r *aiCacheRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&entity.AISummaryCache{})
	return result.RowsAffected, result.Error
}
