package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"savdesk/apperr"
	"savdesk/database"
)

type TechnicienRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewTechnicienRepository(db *gorm.DB, log *zap.Logger) *TechnicienRepository {
	return &TechnicienRepository{db: db, log: log}
}

func (r *TechnicienRepository) WithTx(tx *gorm.DB) *TechnicienRepository {
	return &TechnicienRepository{db: tx, log: r.log}
}

func (r *TechnicienRepository) GetAll(ctx context.Context) ([]database.Technicien, error) {
	var techniciens []database.Technicien
	if err := r.db.WithContext(ctx).Order("name").Find(&techniciens).Error; err != nil {
		r.log.Error("Error getting techniciens", zap.Error(err))
		return nil, translate("list techniciens", err)
	}
	return techniciens, nil
}

func (r *TechnicienRepository) GetByID(ctx context.Context, id uint) (*database.Technicien, error) {
	if id == 0 {
		return nil, apperr.Validation("Invalid technicien ID")
	}
	var technicien database.Technicien
	err := r.db.WithContext(ctx).First(&technicien, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		r.log.Warn("Technicien not found", zap.Uint("id", id))
		return nil, apperr.NotFound("Technicien with ID %d not found", id)
	}
	if err != nil {
		return nil, translate("get technicien", err)
	}
	return &technicien, nil
}

func (r *TechnicienRepository) Create(ctx context.Context, technicien *database.Technicien) (*database.Technicien, error) {
	if err := validateTechnicien(technicien); err != nil {
		return nil, err
	}
	r.log.Info("Adding new technicien", zap.String("name", technicien.Name))

	record := *technicien
	record.ID = 0
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		r.log.Error("Error adding technicien", zap.Error(err))
		return nil, translate("create technicien", err)
	}
	return &record, nil
}

func (r *TechnicienRepository) Update(ctx context.Context, technicien *database.Technicien) (*database.Technicien, error) {
	if err := validateTechnicien(technicien); err != nil {
		return nil, err
	}
	if _, err := r.GetByID(ctx, technicien.ID); err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).Model(&database.Technicien{ID: technicien.ID}).Updates(map[string]interface{}{
		"name":      technicien.Name,
		"email":     technicien.Email,
		"phone":     technicien.Phone,
		"specialty": technicien.Specialty,
	}).Error
	if err != nil {
		r.log.Error("Error updating technicien", zap.Uint("id", technicien.ID), zap.Error(err))
		return nil, translate("update technicien", err)
	}
	return r.GetByID(ctx, technicien.ID)
}

// Delete removes a technician that has no interventions on record.
func (r *TechnicienRepository) Delete(ctx context.Context, id uint) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	var interventions int64
	if err := r.db.WithContext(ctx).Model(&database.Intervention{}).Where("technicien_id = ?", id).Count(&interventions).Error; err != nil {
		return translate("count technicien interventions", err)
	}
	if interventions > 0 {
		return apperr.Conflict("Technicien %d has %d intervention(s)", id, interventions)
	}
	if err := r.db.WithContext(ctx).Delete(&database.Technicien{}, id).Error; err != nil {
		r.log.Error("Error deleting technicien", zap.Uint("id", id), zap.Error(err))
		return translate("delete technicien", err)
	}
	return nil
}

func validateTechnicien(technicien *database.Technicien) error {
	if technicien == nil {
		return apperr.Validation("Technicien data is required")
	}
	if blank(technicien.Name) {
		return apperr.Validation("Name is required")
	}
	if blank(technicien.Email) {
		return apperr.Validation("Email is required")
	}
	return nil
}
