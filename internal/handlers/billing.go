package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/studyforge/studyforge-backend/internal/apperr"
	"github.com/studyforge/studyforge-backend/internal/requestdata"
	"github.com/studyforge/studyforge-backend/internal/services"
)

type BillingHandler struct {
	billingService services.BillingService
}

func NewBillingHandler(billingService services.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

func (bh *BillingHandler) CreateCheckoutSession(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	url, err := bh.billingService.CreateCheckoutSession(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"url": url})
}

func (bh *BillingHandler) CreatePortalSession(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	url, err := bh.billingService.CreatePortalSession(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"url": url})
}

// Webhook is unauthenticated; trust comes from the signature check inside
// the billing service. The body is capped so a hostile caller cannot make
// us buffer an arbitrarily large payload before verification.
func (bh *BillingHandler) Webhook(c *gin.Context) {
	const maxBodyBytes = int64(65536)
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		RespondError(c, apperr.Validation("invalid payload"))
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	if err := bh.billingService.HandleWebhook(c.Request.Context(), payload, sigHeader); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"received": true})
}
