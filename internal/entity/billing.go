package entity

import (
	"time"

	"github.com/google/uuid"
)

// WebhookEvent logs every Stripe webhook delivery for idempotency and
// reconciliation. The unique index on StripeEventID makes redeliveries no-ops.
type WebhookEvent struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	StripeEventID string     `gorm:"size:100;uniqueIndex;not null" json:"stripe_event_id"`
	Type          string     `gorm:"size:100;not null;index" json:"type"`
	Payload       []byte     `gorm:"type:jsonb" json:"-"`
	CustomerID    string     `gorm:"size:100;index" json:"customer_id,omitempty"`
	SubscriptionID string    `gorm:"size:100;index" json:"subscription_id,omitempty"`
	UserID        *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`

	Processed       bool       `gorm:"default:false;index" json:"processed"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"size:500" json:"processing_error,omitempty"`

	ReceivedAt time.Time `gorm:"autoCreateTime;index" json:"received_at"`
}
