package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Game struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// External identifiers
	SteamAppID *int64 `gorm:"index" json:"steam_app_id,omitempty"`
	RawgID     *int64 `json:"rawg_id,omitempty"`

	Name             string  `gorm:"size:200;not null;index" json:"name"`
	Slug             string  `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	Description      string  `gorm:"type:text" json:"description"`
	ShortDescription string  `gorm:"size:500" json:"short_description"`
	HeaderImage      string  `gorm:"type:text" json:"header_image"`
	BackgroundImage  string  `gorm:"type:text" json:"background_image"`
	Screenshots      []string `gorm:"serializer:json" json:"screenshots"`
	TrailerURL       string  `gorm:"type:text" json:"trailer_url"`

	ReleaseDate *time.Time `json:"release_date,omitempty"`
	Genres      []string   `gorm:"serializer:json" json:"genres"`
	Tags        []string   `gorm:"serializer:json" json:"tags"`
	Platforms   []string   `gorm:"serializer:json" json:"platforms"`
	Developers  []string   `gorm:"serializer:json" json:"developers"`
	Publishers  []string   `gorm:"serializer:json" json:"publishers"`

	Rating          float64 `gorm:"default:0" json:"rating"`
	RatingsCount    int     `gorm:"default:0" json:"ratings_count"`
	MetacriticScore *int    `json:"metacritic_score,omitempty"`

	// Player counts maintained by the player-count agent
	CurrentPlayers int `gorm:"default:0;index" json:"current_players"`
	PeakPlayers    int `gorm:"default:0" json:"peak_players"`
	AveragePlayers int `gorm:"default:0" json:"average_players"`

	// Denormalized review stats, recomputed after each review mutation
	ReviewCount        int     `gorm:"default:0" json:"review_count"`
	AverageReviewScore float64 `gorm:"default:0" json:"average_review_score"`

	Featured bool `gorm:"default:false" json:"featured"`
	Trending bool `gorm:"default:false" json:"trending"`
	IsActive bool `gorm:"default:true" json:"is_active"`

	LastPlayerCountUpdate *time.Time `json:"last_player_count_update,omitempty"`
	LastMetadataUpdate    *time.Time `json:"last_metadata_update,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (g *Game) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ID == uuid.Nil {
		g.ID, err = uuid.NewV7()
	}
	return
}

// PlayerCountSample is one point of the player-count time series. Old samples
// are pruned by the cleanup agent after 90 days.
type PlayerCountSample struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	GameID      uuid.UUID `gorm:"type:uuid;not null;index:idx_game_ts,priority:1" json:"game_id"`
	Game        Game      `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"-"`
	SteamAppID  int64     `gorm:"not null;index" json:"steam_app_id"`
	PlayerCount int       `gorm:"not null" json:"player_count"`
	Timestamp   time.Time `gorm:"not null;index:idx_game_ts,priority:2;index" json:"timestamp"`
}
