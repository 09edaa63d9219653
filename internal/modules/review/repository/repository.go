package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"knightgaming.gg/backend/internal/entity"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	Update(ctx context.Context, review *entity.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error)
	FindByGameAndUser(ctx context.Context, gameID, userID uuid.UUID) (*entity.Review, error)
	ListByGame(ctx context.Context, gameID uuid.UUID, sort string, limit, offset int) ([]entity.Review, int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Review, int64, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]entity.Review, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *reviewRepository) Update(ctx context.Context, review *entity.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *reviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	var review entity.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) FindByGameAndUser(ctx context.Context, gameID, userID uuid.UUID) (*entity.Review, error) {
	var review entity.Review
	err := r.db.WithContext(ctx).
		Where("game_id = ? AND user_id = ?", gameID, userID).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ListByGame returns approved reviews only. Pending and flagged reviews are
// visible through the moderation endpoints.
func (r *reviewRepository) ListByGame(ctx context.Context, gameID uuid.UUID, sort string, limit, offset int) ([]entity.Review, int64, error) {
	var reviews []entity.Review
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Review{}).
		Where("game_id = ? AND status = ?", gameID, entity.ReviewStatusApproved)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch sort {
	case "newest":
		query = query.Order("created_at DESC")
	case "rating_high":
		query = query.Order("rating DESC, created_at DESC")
	case "rating_low":
		query = query.Order("rating ASC, created_at DESC")
	default:
		query = query.Order("helpful_count DESC, created_at DESC")
	}

	err := query.Limit(limit).Offset(offset).Find(&reviews).Error
	return reviews, total, err
}

func (r *reviewRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Review, int64, error) {
	var reviews []entity.Review
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Review{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reviews).Error
	return reviews, total, err
}

func (r *reviewRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]entity.Review, int64, error) {
	var reviews []entity.Review
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Review{}).Where("status = ?", status)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at ASC").Limit(limit).Offset(offset).Find(&reviews).Error
	return reviews, total, err
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Review{}, "id = ?", id).Error
}

func (r *reviewRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Review{}).Count(&count).Error
	return count, err
}

func (r *reviewRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Review{}).
		Where("status = ?", status).Count(&count).Error
	return count, err
}
