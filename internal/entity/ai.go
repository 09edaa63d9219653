package entity

import "time"

const (
	SummaryTypeSummary        = "summary"
	SummaryTypeTrendHighlight = "trend_highlight"
	SummaryTypeSocial         = "social_suggestion"
)

// AISummaryCache stores generated AI output keyed by an input hash so repeat
// requests never hit the model twice. Expired rows are pruned by the cleanup
// agent.
type AISummaryCache struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ContentType string `gorm:"size:30;not null;index:idx_cache_content,priority:1" json:"content_type"`
	ContentID   string `gorm:"size:100;index:idx_cache_content,priority:2" json:"content_id"`

	InputHash string `gorm:"size:32;uniqueIndex;not null" json:"-"`
	InputText string `gorm:"size:1000" json:"-"`

	SummaryType string `gorm:"size:30;not null;index:idx_cache_content,priority:3" json:"summary_type"`

	Output       string   `gorm:"type:text;not null" json:"output"`
	Alternatives []string `gorm:"serializer:json" json:"alternatives,omitempty"`

	Model            string  `gorm:"size:50" json:"model"`
	PromptTokens     int     `gorm:"default:0" json:"-"`
	CompletionTokens int     `gorm:"default:0" json:"-"`
	TotalTokens      int     `gorm:"default:0" json:"total_tokens"`
	Cost             float64 `gorm:"default:0" json:"-"`

	ModerationPassed bool     `gorm:"default:true" json:"-"`
	ModerationFlags  []string `gorm:"serializer:json" json:"-"`

	HitCount     int       `gorm:"default:0" json:"hit_count"`
	LastAccessed time.Time `json:"last_accessed"`

	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Valid reports whether the cached row is still within its TTL.
func (c *AISummaryCache) Valid() bool {
	return c.ExpiresAt.After(time.Now())
}
