package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"knightgaming.gg/backend/internal/modules/ai/dto"
	aiService "knightgaming.gg/backend/internal/modules/ai/service"
	"knightgaming.gg/backend/pkg/apperror"
	"knightgaming.gg/backend/pkg/response"
	"knightgaming.gg/backend/pkg/validator"
)

type AIHandler struct {
	service aiService.AIService
}

func NewAIHandler(service aiService.AIService) *AIHandler {
	return &AIHandler{service: service}
}

func (h *AIHandler) SummarizeText(c *gin.Context) {
	var req dto.SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": "VALIDATION_ERROR"})
		return
	}

	resp, err := h.service.SummarizeText(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AIHandler) SummarizeArticle(c *gin.Context) {
	articleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	resp, err := h.service.SummarizeArticle(c.Request.Context(), articleID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AIHandler) TrendHighlight(c *gin.Context) {
	gameID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	resp, err := h.service.TrendHighlight(c.Request.Context(), gameID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AIHandler) SocialPosts(c *gin.Context) {
	articleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	resp, err := h.service.SocialPosts(c.Request.Context(), articleID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
