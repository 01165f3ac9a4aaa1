package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"savdesk/apperr"
	"savdesk/database"
	"savdesk/repository"
)

// PaymentGateway creates provider-side orders. Amounts are in minor units.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]interface{}) (string, error)
}

// RazorpayGateway is the production PaymentGateway.
type RazorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(key, secret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(key, secret)}
}

func (g *RazorpayGateway) CreateOrder(_ context.Context, amountMinor int64, currency, receipt string, notes map[string]interface{}) (string, error) {
	data := map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	}
	order, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", err
	}
	id, ok := order["id"].(string)
	if !ok || id == "" {
		return "", errors.New("razorpay order response has no id")
	}
	return id, nil
}

// PaymentService bills interventions that are not covered by warranty.
type PaymentService struct {
	repos    *repository.Repositories
	gateway  PaymentGateway
	secret   string
	currency string
	log      *zap.Logger
}

func NewPaymentService(repos *repository.Repositories, gateway PaymentGateway, secret, currency string, log *zap.Logger) *PaymentService {
	return &PaymentService{repos: repos, gateway: gateway, secret: secret, currency: currency, log: log}
}

// CreateOrder opens a gateway order for what is still due on the
// intervention recorded on one of the caller's claims: the billed amount
// less the payments already settled, so a revision after payment bills
// only the difference.
func (s *PaymentService) CreateOrder(ctx context.Context, caller Identity, claimID uint) (*database.Payment, error) {
	if !caller.Is(database.RoleClient) {
		return nil, apperr.Forbidden("Only clients can pay for an intervention")
	}
	if s.gateway == nil {
		return nil, apperr.Persistence("create payment order", errors.New("payment gateway is not configured"))
	}

	claim, err := s.repos.Claim.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.ClientID != caller.UserID {
		return nil, apperr.NotFound("Reclamation with ID %d not found", claimID)
	}
	intervention, err := s.repos.Intervention.GetByClaimID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !intervention.BilledAmount.IsPositive() {
		return nil, apperr.Validation("Nothing to pay for this intervention")
	}
	paid, err := s.repos.Payment.PaidTotal(ctx, intervention.ID)
	if err != nil {
		return nil, err
	}
	due := intervention.BilledAmount.Sub(paid)
	if !due.IsPositive() {
		return nil, apperr.Conflict("Intervention %d is already paid", intervention.ID)
	}

	amountMinor := due.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	orderID, err := s.gateway.CreateOrder(ctx, amountMinor, s.currency, fmt.Sprintf("intervention_%d", intervention.ID), map[string]interface{}{
		"client_id":       caller.UserID,
		"reclamation_id":  claimID,
		"intervention_id": intervention.ID,
	})
	if err != nil {
		s.log.Error("Payment order creation error", zap.Uint("intervention_id", intervention.ID), zap.Error(err))
		return nil, apperr.Persistence("create payment order", err)
	}

	payment := database.Payment{
		InterventionID:  intervention.ID,
		ClientID:        caller.UserID,
		Amount:          due,
		Currency:        s.currency,
		Status:          database.PaymentStatusPending,
		ProviderOrderID: orderID,
	}
	if err := s.repos.Payment.Create(ctx, &payment); err != nil {
		return nil, err
	}

	s.log.Info("Payment order created",
		zap.Uint("payment_id", payment.ID),
		zap.String("order_id", orderID),
		zap.String("amount", payment.Amount.StringFixed(2)),
	)
	return &payment, nil
}

// Verify checks the gateway signature of a completed checkout and marks the
// payment paid. A bad signature fails the payment; the client has to open a
// new order.
func (s *PaymentService) Verify(ctx context.Context, caller Identity, orderID, paymentID, signature string) (*database.Payment, error) {
	if blank(orderID) || blank(paymentID) || blank(signature) {
		return nil, apperr.Validation("Order ID, payment ID and signature are required")
	}

	payment, err := s.repos.Payment.GetByProviderOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if payment.ClientID != caller.UserID {
		return nil, apperr.NotFound("Payment for order %s not found", orderID)
	}
	if !VerifySignature(orderID+"|"+paymentID, signature, s.secret) {
		s.log.Warn("Invalid payment signature", zap.String("order_id", orderID))
		if err := s.repos.Payment.MarkFailed(ctx, payment.ID); err != nil {
			return nil, err
		}
		return nil, apperr.Validation("Invalid payment signature")
	}

	if err := s.repos.Payment.MarkPaid(ctx, payment.ID, paymentID); err != nil {
		return nil, err
	}

	payment.Status = database.PaymentStatusPaid
	payment.ProviderPaymentID = paymentID
	s.log.Info("Payment verified", zap.Uint("payment_id", payment.ID))
	return payment, nil
}

func (s *PaymentService) List(ctx context.Context, caller Identity) ([]database.Payment, error) {
	switch caller.Role {
	case database.RoleResponsableSAV:
		return s.repos.Payment.ListAll(ctx)
	case database.RoleClient:
		return s.repos.Payment.ListByClient(ctx, caller.UserID)
	default:
		return nil, apperr.Forbidden("Permission denied")
	}
}

// VerifySignature checks a hex HMAC-SHA256 of data keyed with secret.
func VerifySignature(data, signature, secret string) bool {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
