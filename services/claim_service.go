package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"savdesk/apperr"
	"savdesk/database"
	"savdesk/repository"
)

// ClaimService applies caller ownership on top of the claim repository.
type ClaimService struct {
	db    *gorm.DB
	repos *repository.Repositories
	log   *zap.Logger
}

func NewClaimService(db *gorm.DB, repos *repository.Repositories, log *zap.Logger) *ClaimService {
	return &ClaimService{db: db, repos: repos, log: log}
}

// CreateClaim files a claim for the calling client. Any client id in the
// payload is replaced by the caller's own.
func (s *ClaimService) CreateClaim(ctx context.Context, caller Identity, claim database.Reclamation) (*database.Reclamation, error) {
	if !caller.Is(database.RoleClient) {
		return nil, apperr.Forbidden("Only clients can file a reclamation")
	}
	claim.ClientID = caller.UserID
	return s.repos.Claim.Create(ctx, &claim)
}

// GetClaims lists every claim for the back office and only the caller's own
// claims for a client.
func (s *ClaimService) GetClaims(ctx context.Context, caller Identity) ([]database.Reclamation, error) {
	switch caller.Role {
	case database.RoleResponsableSAV:
		return s.repos.Claim.GetAll(ctx)
	case database.RoleClient:
		return s.repos.Claim.GetByClient(ctx, caller.UserID)
	default:
		return nil, apperr.Forbidden("Permission denied")
	}
}

// GetClaim returns one claim. A client asking for someone else's claim gets
// NotFound so ids of other clients are not disclosed.
func (s *ClaimService) GetClaim(ctx context.Context, caller Identity, id uint) (*database.Reclamation, error) {
	if !caller.Is(database.RoleResponsableSAV) && !caller.Is(database.RoleClient) {
		return nil, apperr.Forbidden("Permission denied")
	}
	claim, err := s.repos.Claim.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Is(database.RoleClient) && claim.ClientID != caller.UserID {
		s.log.Warn("Client requested another client's reclamation",
			zap.Uint("user_id", caller.UserID),
			zap.Uint("reclamation_id", id),
		)
		return nil, apperr.NotFound("Reclamation with ID %d not found", id)
	}
	return claim, nil
}

func (s *ClaimService) UpdateClaim(ctx context.Context, caller Identity, claim database.Reclamation) (*database.Reclamation, error) {
	if !caller.Is(database.RoleResponsableSAV) {
		return nil, apperr.Forbidden("Permission denied")
	}
	return s.repos.Claim.Update(ctx, &claim)
}

func (s *ClaimService) DeleteClaim(ctx context.Context, caller Identity, id uint) error {
	if !caller.Is(database.RoleResponsableSAV) {
		return apperr.Forbidden("Permission denied")
	}
	return s.repos.Claim.Delete(ctx, id)
}

// ChangeEtat sets a claim status explicitly, typically to close it as
// processed. The change is audited in the same transaction.
func (s *ClaimService) ChangeEtat(ctx context.Context, caller Identity, claimID, etatID uint) (*database.Reclamation, error) {
	if !caller.Is(database.RoleResponsableSAV) {
		return nil, apperr.Forbidden("Permission denied")
	}
	if claimID == 0 || etatID == 0 {
		return nil, apperr.Validation("Reclamation ID and Etat ID are required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)
		claim, err := repos.Claim.GetByID(ctx, claimID)
		if err != nil {
			return err
		}
		if err := repos.Claim.SetEtat(ctx, claimID, etatID); err != nil {
			return err
		}
		return repos.Audit.Record(ctx, caller.UserID, database.AuditClaimStatusChanged, "reclamation", claimID,
			fmt.Sprintf("etat %d -> %d", claim.EtatID, etatID))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Reclamation etat changed", zap.Uint("id", claimID), zap.Uint("etat_id", etatID))
	return s.repos.Claim.GetByID(ctx, claimID)
}
