package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	searchService "knightgaming.gg/backend/internal/modules/search/service"
	"knightgaming.gg/backend/pkg/response"
)

type SearchHandler struct {
	service searchService.SearchService
}

func NewSearchHandler(service searchService.SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// Search runs a federated query across the games and news indexes. Premium
// articles show up in results; their content is gated when fetched.
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required", "code": "VALIDATION_ERROR"})
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)
	if limit < 1 || limit > 50 {
		limit = 10
	}

	kind := c.DefaultQuery("type", "all")

	results := gin.H{}

	if kind == "all" || kind == "games" {
		games, err := h.service.SearchGames(c.Request.Context(), query, limit)
		if err != nil {
			response.ResponseError(c, err)
			return
		}
		results["games"] = games
	}

	if kind == "all" || kind == "news" {
		articles, err := h.service.SearchNews(c.Request.Context(), query, limit, true)
		if err != nil {
			response.ResponseError(c, err)
			return
		}
		results["news"] = articles
	}

	c.JSON(http.StatusOK, results)
}
