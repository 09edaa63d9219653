package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"knightgaming.gg/backend/internal/entity"
	subService "knightgaming.gg/backend/internal/modules/subscription/service"
	userRepo "knightgaming.gg/backend/internal/modules/user/repository"
	"knightgaming.gg/backend/pkg/response"
)

type SubscriptionHandler struct {
	service subService.SubscriptionService
	users   userRepo.UserRepository
}

func NewSubscriptionHandler(service subService.SubscriptionService, users userRepo.UserRepository) *SubscriptionHandler {
	return &SubscriptionHandler{service: service, users: users}
}

func (h *SubscriptionHandler) currentUser(c *gin.Context) (*entity.User, bool) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return nil, false
	}
	user, err := h.users.FindByID(c.Request.Context(), userID.String())
	if err != nil {
		response.ResponseError(c, err)
		return nil, false
	}
	return user, true
}

func (h *SubscriptionHandler) CreateCheckout(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	resp, err := h.service.CreateCheckoutSession(c.Request.Context(), user)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SubscriptionHandler) CreatePortal(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	resp, err := h.service.CreatePortalSession(c.Request.Context(), user)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SubscriptionHandler) GetStatus(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, h.service.GetStatus(user))
}

func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	if err := h.service.CancelAtPeriodEnd(c.Request.Context(), user); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subscription will end at the current period"})
}

func (h *SubscriptionHandler) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": h.service.Plans()})
}

// HandleWebhook is mounted without auth middleware; the Stripe signature is
// the authentication.
func (h *SubscriptionHandler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<16))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read payload"})
		return
	}

	if err := h.service.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
