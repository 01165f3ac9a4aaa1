package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"savdesk/apperr"
	"savdesk/database"
)

type PaymentRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewPaymentRepository(db *gorm.DB, log *zap.Logger) *PaymentRepository {
	return &PaymentRepository{db: db, log: log}
}

func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx, log: r.log}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *database.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		r.log.Error("Error creating payment", zap.Uint("intervention_id", payment.InterventionID), zap.Error(err))
		return translate("create payment", err)
	}
	return nil
}

func (r *PaymentRepository) GetByProviderOrderID(ctx context.Context, orderID string) (*database.Payment, error) {
	var payment database.Payment
	err := r.db.WithContext(ctx).Where("provider_order_id = ?", orderID).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Payment for order %s not found", orderID)
	}
	if err != nil {
		return nil, translate("get payment", err)
	}
	return &payment, nil
}

func (r *PaymentRepository) ListByClient(ctx context.Context, clientID uint) ([]database.Payment, error) {
	var payments []database.Payment
	if err := r.db.WithContext(ctx).Where("client_id = ?", clientID).Order("created_at DESC").Find(&payments).Error; err != nil {
		return nil, translate("list client payments", err)
	}
	return payments, nil
}

func (r *PaymentRepository) ListAll(ctx context.Context) ([]database.Payment, error) {
	var payments []database.Payment
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&payments).Error; err != nil {
		return nil, translate("list payments", err)
	}
	return payments, nil
}

// MarkPaid settles a pending payment.
func (r *PaymentRepository) MarkPaid(ctx context.Context, id uint, providerPaymentID string) error {
	res := r.db.WithContext(ctx).Model(&database.Payment{ID: id}).
		Where("status = ?", database.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":              database.PaymentStatusPaid,
			"provider_payment_id": providerPaymentID,
		})
	if res.Error != nil {
		return translate("mark payment paid", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("Payment %d is not pending", id)
	}
	return nil
}

// MarkFailed closes a pending payment whose checkout could not be trusted.
func (r *PaymentRepository) MarkFailed(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&database.Payment{ID: id}).
		Where("status = ?", database.PaymentStatusPending).
		Update("status", database.PaymentStatusFailed)
	if res.Error != nil {
		return translate("mark payment failed", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("Payment %d is not pending", id)
	}
	return nil
}

// PaidTotal sums the settled payments of an intervention.
func (r *PaymentRepository) PaidTotal(ctx context.Context, interventionID uint) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&database.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("intervention_id = ? AND status = ?", interventionID, database.PaymentStatusPaid).
		Row().Scan(&total)
	if err != nil {
		return decimal.Zero, translate("sum payments", err)
	}
	return total.Round(2), nil
}

// HasPayments reports whether any payment, whatever its status, points at
// the intervention.
func (r *PaymentRepository) HasPayments(ctx context.Context, interventionID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&database.Payment{}).
		Where("intervention_id = ?", interventionID).
		Count(&count).Error
	if err != nil {
		return false, translate("check payments", err)
	}
	return count > 0, nil
}
