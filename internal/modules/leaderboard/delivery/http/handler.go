package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"knightgaming.gg/backend/internal/entity"
	"knightgaming.gg/backend/internal/modules/leaderboard/dto"
	leaderboardService "knightgaming.gg/backend/internal/modules/leaderboard/service"
	"knightgaming.gg/backend/pkg/apperror"
	"knightgaming.gg/backend/pkg/response"
	"knightgaming.gg/backend/pkg/validator"
)

type LeaderboardHandler struct {
	service leaderboardService.LeaderboardService
}

func NewLeaderboardHandler(service leaderboardService.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

func (h *LeaderboardHandler) SubmitEntry(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.SubmitEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": "VALIDATION_ERROR"})
		return
	}

	entry, err := h.service.Submit(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	message := "Entry submitted successfully"
	if entry.Status == entity.EntryStatusFlagged {
		message = "Entry submitted but flagged for review"
	}

	c.JSON(http.StatusCreated, dto.SubmitEntryResponse{Message: message, Entry: entry})
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	gameID, err := uuid.Parse(c.Param("game_id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	var q dto.LeaderboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": "VALIDATION_ERROR"})
		return
	}

	board, err := h.service.GetLeaderboard(c.Request.Context(), gameID, q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, board)
}

func (h *LeaderboardHandler) GetMyRank(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	gameID, err := uuid.Parse(c.Param("game_id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	var q dto.RankQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": "VALIDATION_ERROR"})
		return
	}

	rank, err := h.service.GetUserRank(c.Request.Context(), gameID, userID, q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, rank)
}

func (h *LeaderboardHandler) GetMyEntries(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	entries, meta, err := h.service.GetUserEntries(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries, "meta": meta})
}

func (h *LeaderboardHandler) GetCategories(c *gin.Context) {
	gameID, err := uuid.Parse(c.Param("game_id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	categories, err := h.service.GetCategories(c.Request.Context(), gameID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *LeaderboardHandler) DeleteEntry(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	if err := h.service.DeleteEntry(c.Request.Context(), entryID, userID, response.GetUserRole(c)); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Entry deleted successfully"})
}

func (h *LeaderboardHandler) VerifyEntry(c *gin.Context) {
	moderatorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	entry, err := h.service.VerifyEntry(c.Request.Context(), entryID, moderatorID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Entry verified", "entry": entry})
}

func (h *LeaderboardHandler) RejectEntry(c *gin.Context) {
	moderatorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	var req dto.RejectEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": "VALIDATION_ERROR"})
		return
	}

	entry, err := h.service.RejectEntry(c.Request.Context(), entryID, moderatorID, req.Reason)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Entry rejected", "entry": entry})
}

func (h *LeaderboardHandler) ListFlagged(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	entries, meta, err := h.service.ListFlagged(c.Request.Context(), page, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries, "meta": meta})
}
