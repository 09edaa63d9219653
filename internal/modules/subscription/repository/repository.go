package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"knightgaming.gg/backend/internal/entity"
)

type WebhookEventRepository interface {
	Create(ctx context.Context, event *entity.WebhookEvent) error
	FindByStripeEventID(ctx context.Context, stripeEventID string) (*entity.WebhookEvent, error)
	MarkProcessed(ctx context.Context, id uint, processingError string) error
}

type webhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

func (r *webhookEventRepository) Create(ctx context.Context, event *entity.WebhookEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *webhookEventRepository) FindByStripeEventID(ctx context.Context, stripeEventID string) (*entity.WebhookEvent, error) {
	var event entity.WebhookEvent
	if err := r.db.WithContext(ctx).Where("stripe_event_id = ?", stripeEventID).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, id uint, processingError string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&entity.WebhookEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"processed":        processingError == "",
			"processed_at":     &now,
			"processing_error": processingError,
		}).Error
}
