package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EntryStatusPending  = "pending"
	EntryStatusVerified = "verified"
	EntryStatusRejected = "rejected"
	EntryStatusFlagged  = "flagged"
)

const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// DefaultCategory is used when a submission does not name a category.
const DefaultCategory = "general"

// EntryMetadata carries optional gameplay stats submitted with a score. It is
// only consumed as anti-cheat signal input.
type EntryMetadata struct {
	Level      *int     `json:"level,omitempty"`
	TimePlayed *float64 `json:"time_played,omitempty"` // seconds
	Accuracy   *float64 `json:"accuracy,omitempty"`    // percent
	Kills      *int     `json:"kills,omitempty"`
	Deaths     *int     `json:"deaths,omitempty"`
	WinRate    *float64 `json:"win_rate,omitempty"`

	CustomData map[string]any `json:"custom_data,omitempty"`
}

// EntryProof holds evidence references for human moderation. The pipeline
// never interprets these.
type EntryProof struct {
	ScreenshotURL string `json:"screenshot_url,omitempty"`
	VideoURL      string `json:"video_url,omitempty"`
	ReplayFile    string `json:"replay_file,omitempty"`
}

type AntiCheatFlag struct {
	Flag      string    `json:"flag"`
	Severity  string    `json:"severity"`
	Details   string    `json:"details"`
	FlaggedAt time.Time `json:"flagged_at"`
}

// LeaderboardEntry is one score record per (game, user, category, season),
// enforced unique. Resubmissions update the row in place, never duplicate it.
type LeaderboardEntry struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GameID uuid.UUID `gorm:"type:uuid;not null;index:idx_entry_key,unique,priority:1;index:idx_entry_board,priority:1" json:"game_id"`
	Game   Game      `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"-"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_entry_key,unique,priority:2" json:"user_id"`
	User   User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	// PlayerName is a display-name snapshot taken at submission time.
	PlayerName string `gorm:"size:50;not null" json:"player_name"`

	Score    int64  `gorm:"not null;index" json:"score"`
	Category string `gorm:"size:100;not null;default:general;index:idx_entry_key,unique,priority:3;index:idx_entry_board,priority:2" json:"category"`
	// Season is an optional grouping partition; empty string means no season.
	Season string `gorm:"size:50;not null;default:'';index:idx_entry_key,unique,priority:4;index:idx_entry_board,priority:3" json:"season,omitempty"`

	Metadata *EntryMetadata `gorm:"serializer:json" json:"metadata,omitempty"`
	Proof    *EntryProof    `gorm:"serializer:json" json:"proof,omitempty"`

	Status string `gorm:"size:20;not null;default:pending;index" json:"status"`

	// AntiCheatFlags is replaced wholesale on each evaluation run.
	AntiCheatFlags []AntiCheatFlag `gorm:"serializer:json" json:"anti_cheat_flags,omitempty"`

	// Moderator audit fields, never set by the automatic pipeline
	VerifiedBy      *uuid.UUID `gorm:"type:uuid" json:"verified_by,omitempty"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
	RejectionReason string     `gorm:"size:500" json:"rejection_reason,omitempty"`

	SubmittedAt time.Time `gorm:"not null" json:"submitted_at"`
	AchievedAt  time.Time `gorm:"not null" json:"achieved_at"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	// Version guards read-then-write submission races with an optimistic
	// compare-and-swap on update.
	Version int `gorm:"default:0" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e *LeaderboardEntry) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID, err = uuid.NewV7()
	}
	return
}

// Flagged reports whether any anti-cheat flags are present.
func (e *LeaderboardEntry) Flagged() bool {
	return len(e.AntiCheatFlags) > 0
}
