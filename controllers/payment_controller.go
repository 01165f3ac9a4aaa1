package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"savdesk/services"
)

// PaymentOrderRequest asks for a gateway order for the intervention of a claim
type PaymentOrderRequest struct {
	ReclamationID uint `json:"reclamation_id" binding:"required"`
}

// VerifyPaymentRequest contains the checkout result returned by the gateway
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

type PaymentController struct {
	payments *services.PaymentService
	keyID    string
	log      *zap.Logger
}

func NewPaymentController(payments *services.PaymentService, keyID string, log *zap.Logger) *PaymentController {
	return &PaymentController{payments: payments, keyID: keyID, log: log}
}

// GeneratePaymentOrder creates the gateway order the frontend checkout opens
func (ctl *PaymentController) GeneratePaymentOrder(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	var req PaymentOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	payment, err := ctl.payments.CreateOrder(c.Request.Context(), identity, req.ReclamationID)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"razorpay_order_id": payment.ProviderOrderID,
		"payment_id":        payment.ID,
		"amount":            payment.Amount,
		"currency":          payment.Currency,
		"key":               ctl.keyID,
	})
}

func (ctl *PaymentController) VerifyPayment(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	var req VerifyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	payment, err := ctl.payments.Verify(c.Request.Context(), identity, req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (ctl *PaymentController) GetPaymentHistory(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	payments, err := ctl.payments.List(c.Request.Context(), identity)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}
