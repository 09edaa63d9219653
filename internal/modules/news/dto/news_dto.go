package dto

import (
	"time"

	"github.com/google/uuid"
	"knightgaming.gg/backend/internal/entity"
	pkgdto "knightgaming.gg/backend/pkg/dto"
)

type NewsListQuery struct {
	Page     int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit    int    `form:"limit,default=20" binding:"omitempty,min=1,max=50"`
	Category string `form:"category" binding:"omitempty,oneof=news review guide esports industry update"`
	Tag      string `form:"tag"`
	GameID   string `form:"game_id" binding:"omitempty,uuid"`
}

type CreateArticleRequest struct {
	Title         string      `json:"title" binding:"required,max=200"`
	Summary       string      `json:"summary" binding:"required,max=500"`
	Content       string      `json:"content" binding:"required"`
	Category      string      `json:"category" binding:"omitempty,oneof=news review guide esports industry update"`
	Tags          []string    `json:"tags"`
	GameIDs       []uuid.UUID `json:"game_ids"`
	FeaturedImage string      `json:"featured_image"`
	VideoURL      string      `json:"video_url"`
	IsPremium     bool        `json:"is_premium"`
	PublishedAt   *time.Time  `json:"published_at"`
}

type UpdateArticleRequest struct {
	Title         *string     `json:"title" binding:"omitempty,max=200"`
	Summary       *string     `json:"summary" binding:"omitempty,max=500"`
	Content       *string     `json:"content"`
	Category      *string     `json:"category" binding:"omitempty,oneof=news review guide esports industry update"`
	Tags          []string    `json:"tags"`
	GameIDs       []uuid.UUID `json:"game_ids"`
	FeaturedImage *string     `json:"featured_image"`
	VideoURL      *string     `json:"video_url"`
	IsPremium     *bool       `json:"is_premium"`
	Status        *string     `json:"status" binding:"omitempty,oneof=draft published archived"`
}

type NewsListResponse struct {
	Articles []entity.NewsArticle  `json:"articles"`
	Meta     pkgdto.PaginationMeta `json:"meta"`
}

// ArticleView is an article with premium content stripped for readers
// without an active subscription.
type ArticleView struct {
	Article       *entity.NewsArticle `json:"article"`
	ContentLocked bool                `json:"content_locked"`
}
