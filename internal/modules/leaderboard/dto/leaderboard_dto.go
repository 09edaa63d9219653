package dto

import (
	"time"

	"github.com/google/uuid"
	"knightgaming.gg/backend/internal/entity"
	commonDto "knightgaming.gg/backend/pkg/dto"
)

type SubmitEntryRequest struct {
	GameID     string                `json:"game_id" binding:"required,uuid"`
	Score      *int64                `json:"score" binding:"required"`
	Category   string                `json:"category" binding:"omitempty,max=100"`
	Season     string                `json:"season" binding:"omitempty,max=50"`
	Metadata   *entity.EntryMetadata `json:"metadata"`
	Proof      *entity.EntryProof    `json:"proof"`
	AchievedAt *time.Time            `json:"achieved_at"`
}

type LeaderboardQuery struct {
	Category string `form:"category"`
	Season   string `form:"season"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

type RankQuery struct {
	Category string `form:"category"`
	Season   string `form:"season"`
}

type RejectEntryRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// RankedEntry is a leaderboard row with its computed 1-based rank.
type RankedEntry struct {
	Rank       int                     `json:"rank"`
	EntryID    uuid.UUID               `json:"entry_id"`
	PlayerName string                  `json:"player_name"`
	UserID     uuid.UUID               `json:"user_id"`
	Score      int64                   `json:"score"`
	Category   string                  `json:"category"`
	Season     string                  `json:"season,omitempty"`
	AchievedAt time.Time               `json:"achieved_at"`
	Metadata   *entity.EntryMetadata   `json:"metadata,omitempty"`
}

type LeaderboardResponse struct {
	Entries []RankedEntry            `json:"entries"`
	Meta    commonDto.PaginationMeta `json:"meta"`
}

type RankResponse struct {
	HasEntry bool                     `json:"has_entry"`
	Rank     *int64                   `json:"rank"`
	Score    *int64                   `json:"score"`
	Entry    *entity.LeaderboardEntry `json:"entry,omitempty"`
}

type SubmitEntryResponse struct {
	Message string                   `json:"message"`
	Entry   *entity.LeaderboardEntry `json:"entry"`
}
