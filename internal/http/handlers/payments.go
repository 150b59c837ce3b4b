package handlers

import (
	"net/http"

	"rentalhub/internal/services"

	"github.com/gin-gonic/gin"
)

// POST /payment/gcash starts the hosted checkout (redirect) flow.
func (h Handler) CreateCheckout(c *gin.Context) {
	var req services.PaymentInput
	if !BindJSONOrError(c, &req) {
		return
	}
	sess, err := h.payments(c).CreateCheckout(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkout_url": sess.CheckoutURL, "id": sess.ID})
}

// POST /payment/qrph creates a QR payment intent for the polling flow.
func (h Handler) CreateQR(c *gin.Context) {
	var req services.PaymentInput
	if !BindJSONOrError(c, &req) {
		return
	}
	intent, err := h.payments(c).CreateQR(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"qrCode":          gin.H{"imageUrl": intent.ImageURL, "amount": intent.Amount},
		"paymentIntentId": intent.IntentID,
	})
}

// GET /payment/status/:intentId
func (h Handler) PaymentStatus(c *gin.Context) {
	status, err := h.payments(c).Status(c.Request.Context(), c.Param("intentId"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
}

// GET /payment/reconcile/:intentId
func (h Handler) ReconcilePayment(c *gin.Context) {
	rec, err := h.payments(c).Reconcile(c.Request.Context(), c.Param("intentId"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
