package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ArticleStatusDraft     = "draft"
	ArticleStatusPublished = "published"
	ArticleStatusArchived  = "archived"
)

const (
	SourceManual  = "manual"
	SourceNewsAPI = "newsapi"
	SourceRSS     = "rss"
	SourceSteam   = "steam"
)

type NewsArticle struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title    string     `gorm:"size:200;not null" json:"title"`
	Slug     string     `gorm:"size:220;uniqueIndex;not null" json:"slug"`
	Summary  string     `gorm:"size:500;not null" json:"summary"`
	Content  string     `gorm:"type:text;not null" json:"content"`
	Author   string     `gorm:"size:100;default:'KnightGaming Staff'" json:"author"`
	AuthorID *uuid.UUID `gorm:"type:uuid" json:"author_id,omitempty"`

	FeaturedImage string   `gorm:"type:text" json:"featured_image"`
	Images        []string `gorm:"serializer:json" json:"images"`
	VideoURL      string   `gorm:"type:text" json:"video_url,omitempty"`

	Category string      `gorm:"size:30;default:news;index" json:"category"`
	Tags     []string    `gorm:"serializer:json" json:"tags"`
	GameIDs  []uuid.UUID `gorm:"serializer:json" json:"game_ids"`

	SourceType string `gorm:"size:20;default:manual" json:"source_type"`
	SourceURL  string `gorm:"type:text" json:"source_url,omitempty"`
	SourceName string `gorm:"size:100" json:"source_name,omitempty"`
	ExternalID string `gorm:"size:200;index" json:"-"`

	Status      string    `gorm:"size:20;default:published;index" json:"status"`
	PublishedAt time.Time `gorm:"index" json:"published_at"`
	IsPremium   bool      `gorm:"default:false" json:"is_premium"`

	Views  int `gorm:"default:0" json:"views"`
	Shares int `gorm:"default:0" json:"shares"`
	Likes  int `gorm:"default:0" json:"likes"`

	// AI-generated summary, filled lazily on first request
	AISummary            *string    `gorm:"type:text" json:"ai_summary,omitempty"`
	AISummaryGeneratedAt *time.Time `json:"ai_summary_generated_at,omitempty"`
	AISummaryModel       string     `gorm:"size:50" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *NewsArticle) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	if a.PublishedAt.IsZero() {
		a.PublishedAt = time.Now()
	}
	return
}
