package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
	ReviewStatusFlagged  = "flagged"
)

// AutoFlagThreshold is the number of user reports after which a review is
// pulled into the moderation queue automatically.
const AutoFlagThreshold = 3

type HelpfulVote struct {
	UserID    uuid.UUID `json:"user_id"`
	IsHelpful bool      `json:"is_helpful"`
	VotedAt   time.Time `json:"voted_at"`
}

type ReviewReport struct {
	UserID    uuid.UUID `json:"user_id"`
	Reason    string    `json:"reason"`
	FlaggedAt time.Time `json:"flagged_at"`
}

type Review struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GameID uuid.UUID `gorm:"type:uuid;not null;index:idx_review_unique,unique,priority:1" json:"game_id"`
	Game   Game      `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"-"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_review_unique,unique,priority:2" json:"user_id"`
	User   User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	Rating        int      `gorm:"not null" json:"rating"` // 1..5
	Title         string   `gorm:"size:100;not null" json:"title"`
	Content       string   `gorm:"type:text;not null" json:"content"`
	Tags          []string `gorm:"serializer:json" json:"tags"`
	HoursPlayed   *float64 `json:"hours_played,omitempty"`
	RecommendGame bool     `gorm:"default:true" json:"recommend_game"`

	Status          string     `gorm:"size:20;not null;default:pending;index" json:"status"`
	ModerationNotes string     `gorm:"size:500" json:"moderation_notes,omitempty"`
	ModeratedBy     *uuid.UUID `gorm:"type:uuid" json:"moderated_by,omitempty"`
	ModeratedAt     *time.Time `json:"moderated_at,omitempty"`

	HelpfulCount    int            `gorm:"default:0" json:"helpful_count"`
	NotHelpfulCount int            `gorm:"default:0" json:"not_helpful_count"`
	HelpfulVotes    []HelpfulVote  `gorm:"serializer:json" json:"-"`
	Reports         []ReviewReport `gorm:"serializer:json" json:"-"`

	Edited   bool       `gorm:"default:false" json:"edited"`
	EditedAt *time.Time `json:"edited_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}
