package dto

import (
	"time"

	"knightgaming.gg/backend/internal/entity"
	pkgdto "knightgaming.gg/backend/pkg/dto"
)

type GameListQuery struct {
	Page     int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit    int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	Genre    string `form:"genre"`
	Platform string `form:"platform"`
	Search   string `form:"search"`
	Sort     string `form:"sort,default=popular" binding:"omitempty,oneof=popular rating name newest reviews"`
	Featured *bool  `form:"featured"`
	Trending *bool  `form:"trending"`
}

type GameListResponse struct {
	Games []entity.Game         `json:"games"`
	Meta  pkgdto.PaginationMeta `json:"meta"`
}

type CreateGameRequest struct {
	Name             string     `json:"name" binding:"required,max=200"`
	SteamAppID       *int64     `json:"steam_app_id"`
	RawgID           *int64     `json:"rawg_id"`
	Description      string     `json:"description"`
	ShortDescription string     `json:"short_description" binding:"omitempty,max=500"`
	HeaderImage      string     `json:"header_image"`
	BackgroundImage  string     `json:"background_image"`
	TrailerURL       string     `json:"trailer_url"`
	ReleaseDate      *time.Time `json:"release_date"`
	Genres           []string   `json:"genres"`
	Tags             []string   `json:"tags"`
	Platforms        []string   `json:"platforms"`
	Developers       []string   `json:"developers"`
	Publishers       []string   `json:"publishers"`
	MetacriticScore  *int       `json:"metacritic_score"`
	Featured         bool       `json:"featured"`
}

type UpdateGameRequest struct {
	Name             *string    `json:"name" binding:"omitempty,max=200"`
	Description      *string    `json:"description"`
	ShortDescription *string    `json:"short_description" binding:"omitempty,max=500"`
	HeaderImage      *string    `json:"header_image"`
	BackgroundImage  *string    `json:"background_image"`
	TrailerURL       *string    `json:"trailer_url"`
	ReleaseDate      *time.Time `json:"release_date"`
	Genres           []string   `json:"genres"`
	Tags             []string   `json:"tags"`
	Platforms        []string   `json:"platforms"`
	Developers       []string   `json:"developers"`
	Publishers       []string   `json:"publishers"`
	MetacriticScore  *int       `json:"metacritic_score"`
	Featured         *bool      `json:"featured"`
	IsActive         *bool      `json:"is_active"`
}

type PlayerHistoryQuery struct {
	Days int `form:"days,default=7" binding:"omitempty,min=1,max=90"`
}

type PlayerHistoryPoint struct {
	PlayerCount int       `json:"player_count"`
	Timestamp   time.Time `json:"timestamp"`
}

type PlayerHistoryResponse struct {
	GameID  string               `json:"game_id"`
	Days    int                  `json:"days"`
	Samples []PlayerHistoryPoint `json:"samples"`
}

type GameStatsResponse struct {
	GameID             string  `json:"game_id"`
	CurrentPlayers     int     `json:"current_players"`
	Peak24h            int     `json:"peak_24h"`
	Average24h         int     `json:"average_24h"`
	PeakAllTime        int     `json:"peak_all_time"`
	ReviewCount        int     `json:"review_count"`
	AverageReviewScore float64 `json:"average_review_score"`
}

type FacetsResponse struct {
	Genres    []string `json:"genres"`
	Platforms []string `json:"platforms"`
}
