package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationEntryVerified  = "entry_verified"
	NotificationEntryRejected  = "entry_rejected"
	NotificationEntryFlagged   = "entry_flagged"
	NotificationReviewApproved = "review_approved"
	NotificationReviewRejected = "review_rejected"
)

type Notification struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ActorID    *uuid.UUID `gorm:"type:uuid" json:"actor_id,omitempty"`
	EntityID   uuid.UUID  `gorm:"type:uuid" json:"entity_id"`
	EntityType string     `gorm:"size:30" json:"entity_type"` // 'leaderboard_entry', 'review'
	Type       string     `gorm:"size:30;not null" json:"type"`
	Message    string     `gorm:"size:500;not null" json:"message"`
	IsRead     bool       `gorm:"default:false;index" json:"is_read"`
	CreatedAt  time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}
