package dto

import (
	"knightgaming.gg/backend/internal/entity"
	pkgdto "knightgaming.gg/backend/pkg/dto"
)

type CreateReviewRequest struct {
	GameID        string   `json:"game_id" binding:"required,uuid"`
	Rating        int      `json:"rating" binding:"required,min=1,max=5"`
	Title         string   `json:"title" binding:"required,max=100"`
	Content       string   `json:"content" binding:"required,min=20,max=5000"`
	Tags          []string `json:"tags" binding:"omitempty,max=10"`
	HoursPlayed   *float64 `json:"hours_played" binding:"omitempty,min=0"`
	RecommendGame *bool    `json:"recommend_game"`
}

type UpdateReviewRequest struct {
	Rating        *int     `json:"rating" binding:"omitempty,min=1,max=5"`
	Title         *string  `json:"title" binding:"omitempty,max=100"`
	Content       *string  `json:"content" binding:"omitempty,min=20,max=5000"`
	Tags          []string `json:"tags" binding:"omitempty,max=10"`
	HoursPlayed   *float64 `json:"hours_played" binding:"omitempty,min=0"`
	RecommendGame *bool    `json:"recommend_game"`
}

type ReviewListQuery struct {
	Page  int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit int    `form:"limit,default=10" binding:"omitempty,min=1,max=50"`
	Sort  string `form:"sort,default=helpful" binding:"omitempty,oneof=helpful newest rating_high rating_low"`
}

type VoteRequest struct {
	IsHelpful *bool `json:"is_helpful" binding:"required"`
}

type ReportRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type ModerateReviewRequest struct {
	Notes string `json:"notes" binding:"omitempty,max=500"`
}

type ReviewListResponse struct {
	Reviews []entity.Review       `json:"reviews"`
	Meta    pkgdto.PaginationMeta `json:"meta"`
}
