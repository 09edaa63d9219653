package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"knightgaming.gg/backend/internal/entity"
	"knightgaming.gg/backend/internal/modules/news/dto"
	newsService "knightgaming.gg/backend/internal/modules/news/service"
	userRepo "knightgaming.gg/backend/internal/modules/user/repository"
	"knightgaming.gg/backend/pkg/apperror"
	"knightgaming.gg/backend/pkg/response"
	"knightgaming.gg/backend/pkg/validator"
)

type NewsHandler struct {
	service newsService.NewsService
	users   userRepo.UserRepository
}

func NewNewsHandler(service newsService.NewsService, users userRepo.UserRepository) *NewsHandler {
	return &NewsHandler{service: service, users: users}
}

// viewer loads the authenticated user when the optional auth middleware put
// one on the context. Anonymous readers get nil.
func (h *NewsHandler) viewer(c *gin.Context) *entity.User {
	userID, err := response.GetUserID(c)
	if err != nil {
		return nil
	}
	user, err := h.users.FindByID(c.Request.Context(), userID.String())
	if err != nil {
		return nil
	}
	return user
}

func (h *NewsHandler) ListArticles(c *gin.Context) {
	var q dto.NewsListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": "VALIDATION_ERROR"})
		return
	}

	resp, err := h.service.ListArticles(c.Request.Context(), q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *NewsHandler) GetArticle(c *gin.Context) {
	view, err := h.service.GetArticle(c.Request.Context(), c.Param("id"), h.viewer(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *NewsHandler) GetHeadlines(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	articles, err := h.service.GetHeadlines(c.Request.Context(), limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"headlines": articles})
}

func (h *NewsHandler) GetTrending(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	articles, err := h.service.GetTrending(c.Request.Context(), limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trending": articles})
}

func (h *NewsHandler) CreateArticle(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": "VALIDATION_ERROR"})
		return
	}

	authorName := ""
	if author, err := h.users.FindByID(c.Request.Context(), userID.String()); err == nil {
		authorName = author.PlayerName()
	}

	article, err := h.service.CreateArticle(c.Request.Context(), &userID, authorName, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Article published", "article": article})
}

func (h *NewsHandler) UpdateArticle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	var req dto.UpdateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": "VALIDATION_ERROR"})
		return
	}

	article, err := h.service.UpdateArticle(c.Request.Context(), id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Article updated", "article": article})
}

func (h *NewsHandler) DeleteArticle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	if err := h.service.DeleteArticle(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Article deleted"})
}

func (h *NewsHandler) LikeArticle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	if err := h.service.LikeArticle(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Liked"})
}

func (h *NewsHandler) ShareArticle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	if err := h.service.ShareArticle(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Share counted"})
}
