package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"savdesk/apperr"
	"savdesk/database"
	"savdesk/repository"
)

// RecordInterventionInput is what the back office submits for a claim.
type RecordInterventionInput struct {
	ClaimID      uint
	TechnicienID uint
	Description  string
	PerformedAt  time.Time
	PartIDs      []uint
}

// InterventionService prices interventions and moves claims through their
// lifecycle.
type InterventionService struct {
	db    *gorm.DB
	repos *repository.Repositories
	log   *zap.Logger
	now   func() time.Time
}

func NewInterventionService(db *gorm.DB, repos *repository.Repositories, log *zap.Logger) *InterventionService {
	return &InterventionService{db: db, repos: repos, log: log, now: time.Now}
}

// RecordIntervention creates the intervention of a claim or, when the claim
// already has one, revises it in place. The intervention, the claim status
// and the audit entry are written in one transaction. The boolean result is
// true when a new intervention was created.
func (s *InterventionService) RecordIntervention(ctx context.Context, caller Identity, in RecordInterventionInput) (*database.Intervention, bool, error) {
	if !caller.Is(database.RoleResponsableSAV) {
		return nil, false, apperr.Forbidden("Permission denied")
	}
	if blank(in.Description) {
		return nil, false, apperr.Validation("Description is required")
	}
	if in.TechnicienID == 0 {
		return nil, false, apperr.Validation("Technicien ID is required")
	}
	if in.ClaimID == 0 {
		return nil, false, apperr.Validation("Reclamation ID is required")
	}

	s.log.Info("Adding new intervention for reclamation",
		zap.Uint("reclamation_id", in.ClaimID),
		zap.Uint("technicien_id", in.TechnicienID),
	)

	var (
		interventionID uint
		created        bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)

		claim, err := repos.Claim.GetByID(ctx, in.ClaimID)
		if err != nil {
			return err
		}
		if claim.Article == nil {
			s.log.Error("Reclamation points at a missing article",
				zap.Uint("reclamation_id", claim.ID),
				zap.Uint("article_id", claim.ArticleID),
			)
			return apperr.NotFound("Article with ID %d not found", claim.ArticleID)
		}
		if _, err := repos.Technicien.GetByID(ctx, in.TechnicienID); err != nil {
			return err
		}

		var parts []database.PieceRechange
		if claim.Article.UnderWarranty {
			s.log.Info("Article is under warranty, intervention is free",
				zap.Uint("article_id", claim.ArticleID),
			)
		} else {
			parts, err = repos.Piece.FindByIDs(ctx, in.PartIDs)
			if err != nil {
				return err
			}
		}
		pricing := PriceIntervention(claim.Article.UnderWarranty, parts)

		performedAt := in.PerformedAt
		if performedAt.IsZero() {
			performedAt = s.now()
		}

		existing, err := repos.Intervention.GetByClaimID(ctx, claim.ID)
		switch {
		case err == nil:
			existing.TechnicienID = in.TechnicienID
			existing.Description = in.Description
			existing.PerformedAt = performedAt.UTC()
			existing.PartsPrice = pricing.PartsPrice
			existing.LaborFee = pricing.LaborFee
			existing.BilledAmount = pricing.BilledAmount
			if err := repos.Intervention.Update(ctx, existing); err != nil {
				return err
			}
			interventionID = existing.ID
			return repos.Audit.Record(ctx, caller.UserID, database.AuditInterventionRevised, "intervention", existing.ID,
				fmt.Sprintf("reclamation %d billed %s", claim.ID, pricing.BilledAmount.StringFixed(2)))

		case errors.Is(err, apperr.ErrNotFound):
			intervention := database.Intervention{
				PerformedAt:   performedAt.UTC(),
				Description:   in.Description,
				PartsPrice:    pricing.PartsPrice,
				LaborFee:      pricing.LaborFee,
				BilledAmount:  pricing.BilledAmount,
				TechnicienID:  in.TechnicienID,
				ReclamationID: claim.ID,
			}
			if err := repos.Intervention.Create(ctx, &intervention); err != nil {
				return err
			}
			if err := repos.Claim.SetLifecycle(ctx, claim.ID, database.EtatInProgress, &intervention.ID); err != nil {
				return err
			}
			interventionID = intervention.ID
			created = true
			return repos.Audit.Record(ctx, caller.UserID, database.AuditInterventionRecorded, "intervention", intervention.ID,
				fmt.Sprintf("reclamation %d billed %s", claim.ID, pricing.BilledAmount.StringFixed(2)))

		default:
			return err
		}
	})
	if err != nil {
		s.log.Warn("Recording intervention failed", zap.Uint("reclamation_id", in.ClaimID), zap.Error(err))
		return nil, false, err
	}

	intervention, err := s.repos.Intervention.GetByID(ctx, interventionID)
	if err != nil {
		return nil, false, err
	}
	return intervention, created, nil
}

// ReviseIntervention re-runs RecordIntervention for the claim that owns
// intervention id. The claim of an intervention cannot be changed.
func (s *InterventionService) ReviseIntervention(ctx context.Context, caller Identity, id uint, in RecordInterventionInput) (*database.Intervention, error) {
	if !caller.Is(database.RoleResponsableSAV) {
		return nil, apperr.Forbidden("Permission denied")
	}
	current, err := s.repos.Intervention.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.ClaimID != 0 && in.ClaimID != current.ReclamationID {
		return nil, apperr.Validation("Intervention %d belongs to reclamation %d", id, current.ReclamationID)
	}
	in.ClaimID = current.ReclamationID

	intervention, _, err := s.RecordIntervention(ctx, caller, in)
	return intervention, err
}

// DeleteIntervention removes an intervention and puts its claim back to
// pending with no intervention linked.
func (s *InterventionService) DeleteIntervention(ctx context.Context, caller Identity, id uint) error {
	if !caller.Is(database.RoleResponsableSAV) {
		return apperr.Forbidden("Permission denied")
	}

	s.log.Info("Deleting intervention", zap.Uint("id", id))

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)

		intervention, err := repos.Intervention.GetByID(ctx, id)
		if err != nil {
			return err
		}
		billed, err := repos.Payment.HasPayments(ctx, id)
		if err != nil {
			return err
		}
		if billed {
			return apperr.Conflict("Intervention %d has payments and cannot be deleted", id)
		}

		claim, err := repos.Claim.GetByInterventionID(ctx, id)
		switch {
		case err == nil:
			if err := repos.Claim.SetLifecycle(ctx, claim.ID, database.EtatPending, nil); err != nil {
				return err
			}
		case errors.Is(err, apperr.ErrNotFound):
			s.log.Warn("Intervention has no linked reclamation", zap.Uint("id", id))
		default:
			return err
		}

		if err := repos.Intervention.Delete(ctx, id); err != nil {
			return err
		}
		return repos.Audit.Record(ctx, caller.UserID, database.AuditInterventionDeleted, "intervention", id,
			fmt.Sprintf("reclamation %d reset to pending", intervention.ReclamationID))
	})
}

func (s *InterventionService) GetInterventions(ctx context.Context, caller Identity) ([]database.Intervention, error) {
	if !caller.Is(database.RoleResponsableSAV) {
		return nil, apperr.Forbidden("Permission denied")
	}
	return s.repos.Intervention.GetAll(ctx)
}

func (s *InterventionService) GetIntervention(ctx context.Context, caller Identity, id uint) (*database.Intervention, error) {
	if !caller.Is(database.RoleResponsableSAV) {
		return nil, apperr.Forbidden("Permission denied")
	}
	return s.repos.Intervention.GetByID(ctx, id)
}

// GetInterventionsByTechnicien is open to the back office and to the
// technician account linked to that technician.
func (s *InterventionService) GetInterventionsByTechnicien(ctx context.Context, caller Identity, technicienID uint) ([]database.Intervention, error) {
	switch caller.Role {
	case database.RoleResponsableSAV:
	case database.RoleTechnicien:
		if caller.TechnicienID == nil || *caller.TechnicienID != technicienID {
			return nil, apperr.Forbidden("Technicians can only list their own interventions")
		}
	default:
		return nil, apperr.Forbidden("Permission denied")
	}
	return s.repos.Intervention.GetByTechnicien(ctx, technicienID)
}
