package repository

import (
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"savdesk/apperr"
)

// Repositories groups every persistence boundary of the application.
type Repositories struct {
	Claim        *ClaimRepository
	Intervention *InterventionRepository
	Article      *ArticleRepository
	Piece        *PieceRechangeRepository
	Technicien   *TechnicienRepository
	Etat         *EtatRepository
	User         *UserRepository
	Payment      *PaymentRepository
	Audit        *AuditRepository
}

// NewRepositories creates every repository on the same connection.
func NewRepositories(db *gorm.DB, log *zap.Logger) *Repositories {
	return &Repositories{
		Claim:        NewClaimRepository(db, log),
		Intervention: NewInterventionRepository(db, log),
		Article:      NewArticleRepository(db, log),
		Piece:        NewPieceRechangeRepository(db, log),
		Technicien:   NewTechnicienRepository(db, log),
		Etat:         NewEtatRepository(db, log),
		User:         NewUserRepository(db, log),
		Payment:      NewPaymentRepository(db, log),
		Audit:        NewAuditRepository(db, log),
	}
}

// WithTx returns a copy of every repository bound to tx, so a service can
// run several repository calls as one unit of work.
func (r *Repositories) WithTx(tx *gorm.DB) *Repositories {
	return &Repositories{
		Claim:        r.Claim.WithTx(tx),
		Intervention: r.Intervention.WithTx(tx),
		Article:      r.Article.WithTx(tx),
		Piece:        r.Piece.WithTx(tx),
		Technicien:   r.Technicien.WithTx(tx),
		Etat:         r.Etat.WithTx(tx),
		User:         r.User.WithTx(tx),
		Payment:      r.Payment.WithTx(tx),
		Audit:        r.Audit.WithTx(tx),
	}
}

// translate maps gorm failures onto the application error kinds.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &apperr.Error{Kind: apperr.KindNotFound, Message: op + ": record not found", Err: err}
	case isDuplicate(err):
		return &apperr.Error{Kind: apperr.KindConflict, Message: op + ": duplicate value", Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &apperr.Error{Kind: apperr.KindConflict, Message: op + ": still referenced", Err: err}
	default:
		return apperr.Persistence(op, err)
	}
}

// isDuplicate also recognises raw driver messages for connections opened
// without gorm's error translation.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
