package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"knightgaming.gg/backend/internal/modules/game/dto"
	gameService "knightgaming.gg/backend/internal/modules/game/service"
	"knightgaming.gg/backend/pkg/apperror"
	"knightgaming.gg/backend/pkg/response"
	"knightgaming.gg/backend/pkg/validator"
)

type GameHandler struct {
	service gameService.GameService
}

func NewGameHandler(service gameService.GameService) *GameHandler {
	return &GameHandler{service: service}
}

func (h *GameHandler) ListGames(c *gin.Context) {
	var q dto.GameListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": "VALIDATION_ERROR"})
		return
	}

	resp, err := h.service.ListGames(c.Request.Context(), q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *GameHandler) GetGame(c *gin.Context) {
	game, err := h.service.GetGame(c.Request.Context(), c.Param("game_id"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"game": game})
}

func (h *GameHandler) CreateGame(c *gin.Context) {
	var req dto.CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": "VALIDATION_ERROR"})
		return
	}

	game, err := h.service.CreateGame(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Game created", "game": game})
}

func (h *GameHandler) UpdateGame(c *gin.Context) {
	id, err := uuid.Parse(c.Param("game_id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	var req dto.UpdateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": "VALIDATION_ERROR"})
		return
	}

	game, err := h.service.UpdateGame(c.Request.Context(), id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Game updated", "game": game})
}

func (h *GameHandler) DeleteGame(c *gin.Context) {
	id, err := uuid.Parse(c.Param("game_id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	if err := h.service.DeleteGame(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Game deleted"})
}

func (h *GameHandler) GetStats(c *gin.Context) {
	id, err := uuid.Parse(c.Param("game_id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	stats, err := h.service.GetGameStats(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *GameHandler) GetFacets(c *gin.Context) {
	facets, err := h.service.GetFacets(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, facets)
}

func (h *GameHandler) GetPlayerHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("game_id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	var q dto.PlayerHistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err), "code": "VALIDATION_ERROR"})
		return
	}

	history, err := h.service.GetPlayerHistory(c.Request.Context(), id, q.Days)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}
