package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

const (
	SubscriptionStatusNone      = "none"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"

	TierFree    = "free"
	TierPremium = "premium"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"size:30;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:20;default:user;not null" json:"role"`

	DisplayName *string `gorm:"size:50" json:"display_name,omitempty"`
	AvatarURL   *string `gorm:"type:text" json:"avatar_url,omitempty"`
	Bio         *string `gorm:"size:500" json:"bio,omitempty"`

	// Preferences
	Theme              string `gorm:"size:10;default:dark" json:"theme"`
	EmailNotifications bool   `gorm:"default:true" json:"email_notifications"`
	NewsAlerts         bool   `gorm:"default:false" json:"news_alerts"`

	// Subscription snapshot, kept in sync by the Stripe webhook handler
	SubscriptionStatus   string     `gorm:"size:20;default:none" json:"subscription_status"`
	SubscriptionTier     string     `gorm:"size:20;default:free" json:"subscription_tier"`
	StripeCustomerID     *string    `gorm:"size:100;index" json:"-"`
	StripeSubscriptionID *string    `gorm:"size:100" json:"-"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool       `gorm:"default:false" json:"cancel_at_period_end"`

	// Lifetime counters
	ReviewsWritten     int `gorm:"default:0" json:"reviews_written"`
	LeaderboardEntries int `gorm:"default:0" json:"leaderboard_entries"`

	Verified  bool       `gorm:"default:false" json:"verified"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsPremium reports whether the user currently has an active premium subscription.
func (u *User) IsPremium() bool {
	if u.SubscriptionTier != TierPremium || u.SubscriptionStatus != SubscriptionStatusActive {
		return false
	}
	return u.CurrentPeriodEnd == nil || u.CurrentPeriodEnd.After(time.Now())
}

// PlayerName returns the name shown on leaderboards: display name with
// username fallback.
func (u *User) PlayerName() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	return u.Username
}
