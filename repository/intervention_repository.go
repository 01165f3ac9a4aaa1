package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"savdesk/apperr"
	"savdesk/database"
)

type InterventionRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewInterventionRepository(db *gorm.DB, log *zap.Logger) *InterventionRepository {
	return &InterventionRepository{db: db, log: log}
}

func (r *InterventionRepository) WithTx(tx *gorm.DB) *InterventionRepository {
	return &InterventionRepository{db: tx, log: r.log}
}

func (r *InterventionRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Technicien").
		Preload("Reclamation.Article").
		Preload("Reclamation.Client")
}

func (r *InterventionRepository) GetAll(ctx context.Context) ([]database.Intervention, error) {
	var interventions []database.Intervention
	if err := r.withDetails(ctx).Order("performed_at DESC").Order("id DESC").Find(&interventions).Error; err != nil {
		r.log.Error("Error getting interventions", zap.Error(err))
		return nil, translate("list interventions", err)
	}
	return interventions, nil
}

func (r *InterventionRepository) GetByID(ctx context.Context, id uint) (*database.Intervention, error) {
	if id == 0 {
		return nil, apperr.Validation("Invalid intervention ID")
	}
	var intervention database.Intervention
	err := r.withDetails(ctx).First(&intervention, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		r.log.Warn("Intervention not found", zap.Uint("id", id))
		return nil, apperr.NotFound("Intervention with ID %d not found", id)
	}
	if err != nil {
		return nil, translate("get intervention", err)
	}
	return &intervention, nil
}

// GetByClaimID returns the intervention recorded for a claim, NotFound if
// none exists yet.
func (r *InterventionRepository) GetByClaimID(ctx context.Context, claimID uint) (*database.Intervention, error) {
	var intervention database.Intervention
	err := r.db.WithContext(ctx).Where("reclamation_id = ?", claimID).First(&intervention).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("No intervention for reclamation %d", claimID)
	}
	if err != nil {
		return nil, translate("get intervention by reclamation", err)
	}
	return &intervention, nil
}

// GetByTechnicien lists the interventions performed by one technician.
func (r *InterventionRepository) GetByTechnicien(ctx context.Context, technicienID uint) ([]database.Intervention, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&database.Technicien{}).Where("id = ?", technicienID).Count(&count).Error; err != nil {
		return nil, translate("check technicien", err)
	}
	if count == 0 {
		return nil, apperr.NotFound("Technicien with ID %d not found", technicienID)
	}

	var interventions []database.Intervention
	if err := r.withDetails(ctx).
		Where("technicien_id = ?", technicienID).
		Order("performed_at DESC").
		Find(&interventions).Error; err != nil {
		r.log.Error("Error getting technicien interventions", zap.Uint("technicien_id", technicienID), zap.Error(err))
		return nil, translate("list technicien interventions", err)
	}
	return interventions, nil
}

// Create inserts a new intervention. A second intervention for the same
// claim fails with Conflict on the unique reclamation_id index.
func (r *InterventionRepository) Create(ctx context.Context, intervention *database.Intervention) error {
	if err := r.db.WithContext(ctx).Create(intervention).Error; err != nil {
		r.log.Error("Error adding intervention",
			zap.Uint("reclamation_id", intervention.ReclamationID),
			zap.Error(err),
		)
		if isDuplicate(err) {
			return apperr.Conflict("Reclamation %d already has an intervention", intervention.ReclamationID)
		}
		return translate("create intervention", err)
	}
	return nil
}

// Update writes the mutable columns of an existing intervention.
func (r *InterventionRepository) Update(ctx context.Context, intervention *database.Intervention) error {
	res := r.db.WithContext(ctx).Model(&database.Intervention{ID: intervention.ID}).Updates(map[string]interface{}{
		"performed_at":  intervention.PerformedAt,
		"description":   intervention.Description,
		"technicien_id": intervention.TechnicienID,
		"parts_price":   intervention.PartsPrice,
		"labor_fee":     intervention.LaborFee,
		"billed_amount": intervention.BilledAmount,
	})
	if res.Error != nil {
		r.log.Error("Error updating intervention", zap.Uint("id", intervention.ID), zap.Error(res.Error))
		return translate("update intervention", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Intervention with ID %d not found", intervention.ID)
	}
	return nil
}

func (r *InterventionRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&database.Intervention{}, id)
	if res.Error != nil {
		r.log.Error("Error deleting intervention", zap.Uint("id", id), zap.Error(res.Error))
		return translate("delete intervention", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Intervention with ID %d not found", id)
	}
	return nil
}

// Count returns the number of stored interventions.
func (r *InterventionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&database.Intervention{}).Count(&n).Error; err != nil {
		return 0, translate("count interventions", err)
	}
	return n, nil
}
