package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"savdesk/apperr"
	"savdesk/database"
)

type EtatRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewEtatRepository(db *gorm.DB, log *zap.Logger) *EtatRepository {
	return &EtatRepository{db: db, log: log}
}

func (r *EtatRepository) WithTx(tx *gorm.DB) *EtatRepository {
	return &EtatRepository{db: tx, log: r.log}
}

func (r *EtatRepository) GetAll(ctx context.Context) ([]database.Etat, error) {
	var etats []database.Etat
	if err := r.db.WithContext(ctx).Order("id").Find(&etats).Error; err != nil {
		return nil, translate("list etats", err)
	}
	return etats, nil
}

func (r *EtatRepository) GetByID(ctx context.Context, id uint) (*database.Etat, error) {
	if id == 0 {
		return nil, apperr.Validation("Invalid etat ID")
	}
	var etat database.Etat
	err := r.db.WithContext(ctx).First(&etat, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Etat with ID %d not found", id)
	}
	if err != nil {
		return nil, translate("get etat", err)
	}
	return &etat, nil
}

func (r *EtatRepository) Create(ctx context.Context, label string) (*database.Etat, error) {
	if blank(label) {
		return nil, apperr.Validation("Label is required")
	}
	etat := database.Etat{Label: label}
	if err := r.db.WithContext(ctx).Create(&etat).Error; err != nil {
		r.log.Error("Error adding etat", zap.Error(err))
		return nil, translate("create etat", err)
	}
	return &etat, nil
}

// Update relabels a status. Statuses already used by a claim are frozen.
func (r *EtatRepository) Update(ctx context.Context, id uint, label string) (*database.Etat, error) {
	if blank(label) {
		return nil, apperr.Validation("Label is required")
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := r.ensureUnreferenced(ctx, id); err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&database.Etat{ID: id}).Update("label", label).Error; err != nil {
		return nil, translate("update etat", err)
	}
	return r.GetByID(ctx, id)
}

func (r *EtatRepository) Delete(ctx context.Context, id uint) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	if err := r.ensureUnreferenced(ctx, id); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(&database.Etat{}, id).Error; err != nil {
		return translate("delete etat", err)
	}
	return nil
}

func (r *EtatRepository) ensureUnreferenced(ctx context.Context, id uint) error {
	var claims int64
	if err := r.db.WithContext(ctx).Model(&database.Reclamation{}).Where("etat_id = ?", id).Count(&claims).Error; err != nil {
		return translate("count etat reclamations", err)
	}
	if claims > 0 {
		return apperr.Conflict("Etat %d is used by %d reclamation(s)", id, claims)
	}
	return nil
}
