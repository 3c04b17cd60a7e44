package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	portal "github.com/stripe/stripe-go/v79/billingportal/session"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/webhook"
	"gorm.io/gorm"

	"github.com/studyforge/studyforge-backend/internal/apperr"
	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/repos"
	"github.com/studyforge/studyforge-backend/internal/types"
	"github.com/studyforge/studyforge-backend/internal/utils"
)

type BillingConfig struct {
	SecretKey     string
	WebhookSecret string
	ProPriceID    string
	AppURL        string
}

func LoadBillingConfig(log *logger.Logger) BillingConfig {
	return BillingConfig{
		SecretKey:     utils.GetEnv("STRIPE_SECRET_KEY", "", log),
		WebhookSecret: utils.GetEnv("STRIPE_WEBHOOK_SECRET", "", log),
		ProPriceID:    utils.GetEnv("STRIPE_PRO_PRICE_ID", "", log),
		AppURL:        strings.TrimRight(utils.GetEnv("APP_URL", "http://localhost:3000", log), "/"),
	}
}

type BillingService interface {
	CreateCheckoutSession(ctx context.Context, userID uuid.UUID) (string, error)
	CreatePortalSession(ctx context.Context, userID uuid.UUID) (string, error)

	// HandleWebhook verifies the Stripe-Signature header against the raw
	// payload and applies the event. A bad signature is SignatureInvalid;
	// unrecognized event types are acknowledged and ignored.
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error
}

type billingService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
	cfg      BillingConfig
}

func NewBillingService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, cfg BillingConfig) BillingService {
	serviceLog := log.With("service", "BillingService")
	stripe.Key = cfg.SecretKey
	return &billingService{
		db:       db,
		log:      serviceLog,
		userRepo: userRepo,
		cfg:      cfg,
	}
}

func (bs *billingService) CreateCheckoutSession(ctx context.Context, userID uuid.UUID) (string, error) {
	if bs.cfg.SecretKey == "" || bs.cfg.ProPriceID == "" {
		return "", fmt.Errorf("billing not configured")
	}

	user, err := bs.loadUser(ctx, userID)
	if err != nil {
		return "", err
	}

	customerID, err := bs.ensureStripeCustomer(ctx, user)
	if err != nil {
		return "", fmt.Errorf("failed to prepare billing customer: %w", err)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(bs.cfg.ProPriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(bs.cfg.AppURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(bs.cfg.AppURL + "/billing/cancel"),
		Metadata: map[string]string{
			"userId": user.ID.String(),
		},
	}

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (bs *billingService) CreatePortalSession(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := bs.loadUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		return "", apperr.Validation("no billing customer on file for this account")
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(*user.StripeCustomerID),
		ReturnURL: stripe.String(bs.cfg.AppURL + "/settings/billing"),
	}
	sess, err := portal.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}
	return sess.URL, nil
}

func (bs *billingService) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signatureHeader,
		bs.cfg.WebhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return apperr.SignatureInvalid(fmt.Errorf("webhook signature verification failed: %w", err))
	}

	switch event.Type {
	case "checkout.session.completed":
		return bs.handleCheckoutCompleted(ctx, event.Data.Raw)
	case "customer.subscription.updated":
		return bs.handleSubscriptionUpdated(ctx, event.Data.Raw)
	case "customer.subscription.deleted":
		return bs.handleSubscriptionDeleted(ctx, event.Data.Raw)
	default:
		bs.log.Debug("Ignoring unhandled stripe event", "type", event.Type)
		return nil
	}
}

func (bs *billingService) handleCheckoutCompleted(ctx context.Context, raw json.RawMessage) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return apperr.Validation("invalid checkout session payload: %v", err)
	}

	userIDStr := sess.Metadata["userId"]
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return apperr.Validation("checkout session missing userId metadata")
	}
	subscriptionID := ""
	if sess.Subscription != nil {
		subscriptionID = sess.Subscription.ID
	}
	if subscriptionID == "" {
		return apperr.Validation("checkout session missing subscription id")
	}

	return bs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bs.userRepo.ActivateSubscription(ctx, tx, userID, subscriptionID); err != nil {
			return apperr.PersistenceFailed(fmt.Errorf("failed to activate subscription: %w", err))
		}
		if sess.Customer != nil && sess.Customer.ID != "" {
			if err := bs.userRepo.SetStripeCustomerID(ctx, tx, userID, sess.Customer.ID); err != nil {
				return apperr.PersistenceFailed(fmt.Errorf("failed to store stripe customer id: %w", err))
			}
		}
		bs.log.Info("Subscription activated", "user_id", userID, "subscription_id", subscriptionID)
		return nil
	})
}

func (bs *billingService) handleSubscriptionUpdated(ctx context.Context, raw json.RawMessage) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return apperr.Validation("invalid subscription payload: %v", err)
	}
	if sub.ID == "" {
		return apperr.Validation("subscription event missing id")
	}

	plan := PlanForSubscriptionStatus(sub.Status)
	if err := bs.userRepo.SetPlanBySubscriptionID(ctx, nil, sub.ID, plan); err != nil {
		return apperr.PersistenceFailed(fmt.Errorf("failed to update plan for subscription: %w", err))
	}
	bs.log.Info("Subscription plan updated", "subscription_id", sub.ID, "status", sub.Status, "plan", plan)
	return nil
}

func (bs *billingService) handleSubscriptionDeleted(ctx context.Context, raw json.RawMessage) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return apperr.Validation("invalid subscription payload: %v", err)
	}
	if sub.ID == "" {
		return apperr.Validation("subscription event missing id")
	}

	if err := bs.userRepo.ClearSubscription(ctx, nil, sub.ID); err != nil {
		return apperr.PersistenceFailed(fmt.Errorf("failed to clear subscription: %w", err))
	}
	bs.log.Info("Subscription cancelled", "subscription_id", sub.ID)
	return nil
}

// PlanForSubscriptionStatus maps a Stripe subscription status onto a plan.
// Only an active subscription keeps pro access.
func PlanForSubscriptionStatus(status stripe.SubscriptionStatus) string {
	if status == stripe.SubscriptionStatusActive {
		return types.PlanPro
	}
	return types.PlanCancelled
}

func (bs *billingService) ensureStripeCustomer(ctx context.Context, user *types.User) (string, error) {
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Metadata: map[string]string{
			"userId": user.ID.String(),
		},
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", err
	}
	if err := bs.userRepo.SetStripeCustomerID(ctx, nil, user.ID, cust.ID); err != nil {
		return "", err
	}
	return cust.ID, nil
}

func (bs *billingService) loadUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	users, err := bs.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, apperr.PersistenceFailed(fmt.Errorf("error fetching user: %w", err))
	}
	if len(users) == 0 {
		return nil, apperr.NotFound("user profile not found")
	}
	return users[0], nil
}
