package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"savdesk/apperr"
	"savdesk/database"
)

// ClaimRepository persists reclamations and guards their references.
type ClaimRepository struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewClaimRepository(db *gorm.DB, log *zap.Logger) *ClaimRepository {
	return &ClaimRepository{db: db, log: log, now: time.Now}
}

func (r *ClaimRepository) WithTx(tx *gorm.DB) *ClaimRepository {
	return &ClaimRepository{db: tx, log: r.log, now: r.now}
}

func (r *ClaimRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Article").
		Preload("Etat").
		Preload("Client")
}

// Create stores a new claim. Status and filing date are always reset to
// pending/now whatever the caller supplied.
func (r *ClaimRepository) Create(ctx context.Context, claim *database.Reclamation) (*database.Reclamation, error) {
	if claim == nil {
		return nil, apperr.Validation("Reclamation data is required")
	}
	if err := validateClaim(claim); err != nil {
		return nil, err
	}

	r.log.Info("Adding new reclamation",
		zap.Uint("client_id", claim.ClientID),
		zap.Uint("article_id", claim.ArticleID),
	)

	if err := r.checkReferences(ctx, claim.ArticleID, claim.ClientID, database.EtatPending); err != nil {
		return nil, err
	}

	record := database.Reclamation{
		Description: claim.Description,
		FiledAt:     r.now().UTC(),
		ArticleID:   claim.ArticleID,
		ClientID:    claim.ClientID,
		EtatID:      database.EtatPending,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		r.log.Error("Error adding reclamation", zap.Error(err))
		return nil, translate("create reclamation", err)
	}

	r.log.Info("Reclamation created", zap.Uint("id", record.ID))
	return r.GetByID(ctx, record.ID)
}

// GetAll returns every claim, most recently filed first.
func (r *ClaimRepository) GetAll(ctx context.Context) ([]database.Reclamation, error) {
	var claims []database.Reclamation
	if err := r.withDetails(ctx).
		Order("filed_at DESC").
		Order("id DESC").
		Find(&claims).Error; err != nil {
		r.log.Error("Error getting all reclamations", zap.Error(err))
		return nil, translate("list reclamations", err)
	}
	return claims, nil
}

// GetByClient returns the claims filed by one client.
func (r *ClaimRepository) GetByClient(ctx context.Context, clientID uint) ([]database.Reclamation, error) {
	if err := r.clientExists(ctx, clientID); err != nil {
		return nil, err
	}

	var claims []database.Reclamation
	if err := r.withDetails(ctx).
		Where("client_id = ?", clientID).
		Order("filed_at DESC").
		Order("id DESC").
		Find(&claims).Error; err != nil {
		r.log.Error("Error getting client reclamations", zap.Uint("client_id", clientID), zap.Error(err))
		return nil, translate("list client reclamations", err)
	}
	return claims, nil
}

// GetByID returns one claim with its article, status and client.
func (r *ClaimRepository) GetByID(ctx context.Context, id uint) (*database.Reclamation, error) {
	if id == 0 {
		return nil, apperr.Validation("Invalid reclamation ID")
	}

	var claim database.Reclamation
	err := r.withDetails(ctx).First(&claim, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		r.log.Warn("Reclamation not found", zap.Uint("id", id))
		return nil, apperr.NotFound("Reclamation with ID %d not found", id)
	}
	if err != nil {
		return nil, translate("get reclamation", err)
	}
	return &claim, nil
}

// GetByInterventionID returns the claim linked to an intervention.
func (r *ClaimRepository) GetByInterventionID(ctx context.Context, interventionID uint) (*database.Reclamation, error) {
	var claim database.Reclamation
	err := r.db.WithContext(ctx).Where("intervention_id = ?", interventionID).First(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("No reclamation references intervention %d", interventionID)
	}
	if err != nil {
		return nil, translate("get reclamation by intervention", err)
	}
	return &claim, nil
}

// Update overwrites an existing claim after the same checks as Create.
// A zero FiledAt keeps the stored filing date.
func (r *ClaimRepository) Update(ctx context.Context, claim *database.Reclamation) (*database.Reclamation, error) {
	if claim == nil {
		return nil, apperr.Validation("Reclamation data is required")
	}
	if err := validateClaim(claim); err != nil {
		return nil, err
	}
	if claim.EtatID == 0 {
		return nil, apperr.Validation("Etat ID is required")
	}

	r.log.Info("Updating reclamation", zap.Uint("id", claim.ID))

	existing, err := r.GetByID(ctx, claim.ID)
	if err != nil {
		return nil, err
	}
	if err := r.checkReferences(ctx, claim.ArticleID, claim.ClientID, claim.EtatID); err != nil {
		return nil, err
	}
	if claim.InterventionID != nil {
		var intervention database.Intervention
		err := r.db.WithContext(ctx).First(&intervention, *claim.InterventionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Intervention with ID %d not found", *claim.InterventionID)
		}
		if err != nil {
			return nil, translate("get intervention", err)
		}
		if intervention.ReclamationID != claim.ID {
			return nil, apperr.Validation("Intervention %d belongs to reclamation %d", intervention.ID, intervention.ReclamationID)
		}
	}

	filedAt := existing.FiledAt
	if !claim.FiledAt.IsZero() {
		filedAt = claim.FiledAt.UTC()
	}

	err = r.db.WithContext(ctx).Model(&database.Reclamation{ID: claim.ID}).Updates(map[string]interface{}{
		"description":     claim.Description,
		"filed_at":        filedAt,
		"article_id":      claim.ArticleID,
		"client_id":       claim.ClientID,
		"etat_id":         claim.EtatID,
		"intervention_id": claim.InterventionID,
	}).Error
	if err != nil {
		r.log.Error("Error updating reclamation", zap.Uint("id", claim.ID), zap.Error(err))
		return nil, translate("update reclamation", err)
	}

	return r.GetByID(ctx, claim.ID)
}

// SetLifecycle moves a claim to etatID and (un)links its intervention.
func (r *ClaimRepository) SetLifecycle(ctx context.Context, claimID, etatID uint, interventionID *uint) error {
	res := r.db.WithContext(ctx).Model(&database.Reclamation{ID: claimID}).Updates(map[string]interface{}{
		"etat_id":         etatID,
		"intervention_id": interventionID,
	})
	if res.Error != nil {
		return translate("update reclamation lifecycle", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Reclamation with ID %d not found", claimID)
	}
	return nil
}

// SetEtat changes only the status of a claim.
func (r *ClaimRepository) SetEtat(ctx context.Context, claimID, etatID uint) error {
	if err := r.etatExists(ctx, etatID); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&database.Reclamation{ID: claimID}).Update("etat_id", etatID)
	if res.Error != nil {
		return translate("update reclamation etat", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Reclamation with ID %d not found", claimID)
	}
	return nil
}

// Delete removes a claim. Claims that still own an intervention are kept
// until the intervention is deleted.
func (r *ClaimRepository) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return apperr.Validation("Invalid reclamation ID")
	}

	r.log.Info("Deleting reclamation", zap.Uint("id", id))

	var claim database.Reclamation
	err := r.db.WithContext(ctx).First(&claim, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		r.log.Warn("Reclamation not found", zap.Uint("id", id))
		return apperr.NotFound("Reclamation with ID %d not found", id)
	}
	if err != nil {
		return translate("get reclamation", err)
	}

	var interventions int64
	if err := r.db.WithContext(ctx).Model(&database.Intervention{}).
		Where("reclamation_id = ?", id).
		Count(&interventions).Error; err != nil {
		return translate("count interventions", err)
	}
	if interventions > 0 {
		return apperr.Conflict("Reclamation %d has an intervention; delete the intervention first", id)
	}

	if err := r.db.WithContext(ctx).Delete(&database.Reclamation{}, id).Error; err != nil {
		r.log.Error("Error deleting reclamation", zap.Uint("id", id), zap.Error(err))
		return translate("delete reclamation", err)
	}
	return nil
}

func validateClaim(claim *database.Reclamation) error {
	if blank(claim.Description) {
		return apperr.Validation("Description is required")
	}
	if claim.ArticleID == 0 {
		return apperr.Validation("Article ID is required")
	}
	if claim.ClientID == 0 {
		return apperr.Validation("Client ID is required")
	}
	return nil
}

func (r *ClaimRepository) checkReferences(ctx context.Context, articleID, clientID, etatID uint) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&database.Article{}).Where("id = ?", articleID).Count(&count).Error; err != nil {
		return translate("check article", err)
	}
	if count == 0 {
		return apperr.NotFound("Article with ID %d not found", articleID)
	}
	if err := r.clientExists(ctx, clientID); err != nil {
		return err
	}
	return r.etatExists(ctx, etatID)
}

func (r *ClaimRepository) clientExists(ctx context.Context, clientID uint) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&database.User{}).
		Where("id = ? AND role = ?", clientID, database.RoleClient).
		Count(&count).Error; err != nil {
		return translate("check client", err)
	}
	if count == 0 {
		return apperr.NotFound("Client with ID %d not found", clientID)
	}
	return nil
}

func (r *ClaimRepository) etatExists(ctx context.Context, etatID uint) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&database.Etat{}).Where("id = ?", etatID).Count(&count).Error; err != nil {
		return translate("check etat", err)
	}
	if count == 0 {
		return apperr.NotFound("Etat with ID %d not found", etatID)
	}
	return nil
}
