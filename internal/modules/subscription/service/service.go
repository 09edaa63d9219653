package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/stripe/stripe-go/v79"
	portalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	stripesub "github.com/stripe/stripe-go/v79/subscription"
	"github.com/stripe/stripe-go/v79/webhook"
	"gorm.io/gorm"
	"knightgaming.gg/backend/internal/entity"
	"knightgaming.gg/backend/internal/modules/subscription/dto"
	"knightgaming.gg/backend/internal/modules/subscription/repository"
	userRepo "knightgaming.gg/backend/internal/modules/user/repository"
	"knightgaming.gg/backend/pkg/apperror"
)

type SubscriptionService interface {
	CreateCheckoutSession(ctx context.Context, user *entity.User) (*dto.CheckoutResponse, error)
	CreatePortalSession(ctx context.Context, user *entity.User) (*dto.PortalResponse, error)
	GetStatus(user *entity.User) *dto.StatusResponse
	CancelAtPeriodEnd(ctx context.Context, user *entity.User) error
	Plans() []dto.Plan
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type subscriptionService struct {
	events        repository.WebhookEventRepository
	users         userRepo.UserRepository
	premiumPrice  string
	webhookSecret string
	successURL    string
	cancelURL     string
}

func NewSubscriptionService(events repository.WebhookEventRepository, users userRepo.UserRepository) SubscriptionService {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")

	frontend := os.Getenv("FRONTEND_URL")
	if frontend == "" {
		frontend = "http://localhost:3000"
	}

	return &subscriptionService{
		events:        events,
		users:         users,
		premiumPrice:  os.Getenv("STRIPE_PREMIUM_PRICE_ID"),
		webhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		successURL:    frontend + "/subscription/success",
		cancelURL:     frontend + "/subscription/cancelled",
	}
}

// ensureCustomer lazily creates the Stripe customer for a user.
func (s *subscriptionService) ensureCustomer(ctx context.Context, user *entity.User) (string, error) {
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Metadata: map[string]string{
			"user_id": user.ID.String(),
		},
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", err
	}

	user.StripeCustomerID = &cust.ID
	if err := s.users.Update(ctx, user); err != nil {
		return "", err
	}
	return cust.ID, nil
}

func (s *subscriptionService) CreateCheckoutSession(ctx context.Context, user *entity.User) (*dto.CheckoutResponse, error) {
	if user.IsPremium() {
		return nil, fmt.Errorf("%w: you already have an active subscription", apperror.ErrConflict)
	}
	if s.premiumPrice == "" {
		return nil, fmt.Errorf("%w: billing is not configured", apperror.ErrInternal)
	}

	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.premiumPrice),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, err
	}

	return &dto.CheckoutResponse{URL: sess.URL}, nil
}

func (s *subscriptionService) CreatePortalSession(ctx context.Context, user *entity.User) (*dto.PortalResponse, error) {
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		return nil, fmt.Errorf("%w: no billing account", apperror.ErrNotFound)
	}

	sess, err := portalsession.New(&stripe.BillingPortalSessionParams{
		Customer:  user.StripeCustomerID,
		ReturnURL: stripe.String(s.successURL),
	})
	if err != nil {
		return nil, err
	}

	return &dto.PortalResponse{URL: sess.URL}, nil
}

func (s *subscriptionService) GetStatus(user *entity.User) *dto.StatusResponse {
	return &dto.StatusResponse{
		Status:            user.SubscriptionStatus,
		Tier:              user.SubscriptionTier,
		IsPremium:         user.IsPremium(),
		CurrentPeriodEnd:  user.CurrentPeriodEnd,
		CancelAtPeriodEnd: user.CancelAtPeriodEnd,
	}
}

func (s *subscriptionService) CancelAtPeriodEnd(ctx context.Context, user *entity.User) error {
	if user.StripeSubscriptionID == nil || *user.StripeSubscriptionID == "" {
		return fmt.Errorf("%w: no active subscription", apperror.ErrNotFound)
	}

	_, err := stripesub.Update(*user.StripeSubscriptionID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	})
	if err != nil {
		return err
	}

	user.CancelAtPeriodEnd = true
	return s.users.Update(ctx, user)
}

func (s *subscriptionService) Plans() []dto.Plan {
	return []dto.Plan{
		{
			ID:         "free",
			Name:       "Free",
			PriceCents: 0,
			Currency:   "usd",
			Interval:   "month",
			Features: []string{
				"News, reviews and leaderboards",
				"Limited AI summaries per day",
			},
			IsAvailable: true,
		},
		{
			ID:         "premium_monthly",
			Name:       "Premium",
			PriceCents: 499,
			Currency:   "usd",
			Interval:   "month",
			Features: []string{
				"Premium articles",
				"Higher AI quota",
				"Ad-free experience",
			},
			IsAvailable: s.premiumPrice != "",
		},
	}
}

// HandleWebhook verifies the Stripe signature, records the event and applies
// subscription lifecycle changes to the user snapshot. Redelivered events are
// recognized by their id and skipped.
func (s *subscriptionService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return fmt.Errorf("%w: invalid webhook signature", apperror.ErrUnauthorized)
	}

	if existing, _ := s.events.FindByStripeEventID(ctx, event.ID); existing != nil {
		return nil
	}

	record := &entity.WebhookEvent{
		StripeEventID: event.ID,
		Type:          string(event.Type),
		Payload:       event.Data.Raw,
	}
	if err := s.events.Create(ctx, record); err != nil {
		// A concurrent delivery won the insert race.
		return nil
	}

	processingErr := s.processEvent(ctx, record, event)

	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	if err := s.events.MarkProcessed(ctx, record.ID, errMsg); err != nil {
		log.Printf("subscription: failed to mark webhook %s processed: %v", event.ID, err)
	}

	return processingErr
}

func (s *subscriptionService) processEvent(ctx context.Context, record *entity.WebhookEvent, event stripe.Event) error {
	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		return s.applySubscription(ctx, record, event, false)
	case "customer.subscription.deleted":
		return s.applySubscription(ctx, record, event, true)
	default:
		return nil
	}
}

func (s *subscriptionService) applySubscription(ctx context.Context, record *entity.WebhookEvent, event stripe.Event, deleted bool) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to parse subscription payload: %w", err)
	}

	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}
	record.CustomerID = customerID
	record.SubscriptionID = sub.ID

	user, err := s.users.FindByStripeCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("no user for stripe customer %s", customerID)
		}
		return err
	}
	record.UserID = &user.ID

	if deleted {
		user.SubscriptionStatus = entity.SubscriptionStatusExpired
		user.SubscriptionTier = entity.TierFree
		user.StripeSubscriptionID = nil
		user.CurrentPeriodEnd = nil
		user.CancelAtPeriodEnd = false
		return s.users.Update(ctx, user)
	}

	user.StripeSubscriptionID = &sub.ID
	user.CancelAtPeriodEnd = sub.CancelAtPeriodEnd

	switch sub.Status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		user.SubscriptionStatus = entity.SubscriptionStatusActive
		user.SubscriptionTier = entity.TierPremium
	case stripe.SubscriptionStatusCanceled:
		user.SubscriptionStatus = entity.SubscriptionStatusCancelled
		user.SubscriptionTier = entity.TierFree
	default:
		user.SubscriptionStatus = entity.SubscriptionStatusExpired
		user.SubscriptionTier = entity.TierFree
	}

	if sub.CurrentPeriodEnd > 0 {
		periodEnd := time.Unix(sub.CurrentPeriodEnd, 0)
		user.CurrentPeriodEnd = &periodEnd
	}

	return s.users.Update(ctx, user)
}
