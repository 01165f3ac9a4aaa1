package services

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"savdesk/apperr"
	"savdesk/database"
)

// EtatCount is the number of claims currently in one status.
type EtatCount struct {
	EtatID uint   `json:"etat_id"`
	Label  string `json:"label"`
	Count  int64  `json:"count"`
}

// Dashboard summarizes the claim queue for the back office.
type Dashboard struct {
	ClaimsByEtat              []EtatCount     `json:"claims_by_etat"`
	Interventions             int64           `json:"interventions"`
	TotalBilled               decimal.Decimal `json:"total_billed"`
	ClaimsWithoutIntervention int64           `json:"claims_without_intervention"`
}

// DashboardService reads aggregates through the plain SQL handle. The
// queries use no placeholders so they run unchanged on postgres and sqlite.
type DashboardService struct {
	db  *sql.DB
	log *zap.Logger
}

func NewDashboardService(db *sql.DB, log *zap.Logger) *DashboardService {
	return &DashboardService{db: db, log: log}
}

func (s *DashboardService) Summary(ctx context.Context, caller Identity) (*Dashboard, error) {
	if !caller.Is(database.RoleResponsableSAV) {
		return nil, apperr.Forbidden("Permission denied")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.label, COUNT(r.id)
		FROM etats e
		LEFT JOIN reclamations r ON r.etat_id = e.id
		GROUP BY e.id, e.label
		ORDER BY e.id`)
	if err != nil {
		s.log.Error("Dashboard etat query failed", zap.Error(err))
		return nil, apperr.Persistence("dashboard claims by etat", err)
	}
	defer rows.Close()

	dashboard := &Dashboard{ClaimsByEtat: []EtatCount{}}
	for rows.Next() {
		var c EtatCount
		if err := rows.Scan(&c.EtatID, &c.Label, &c.Count); err != nil {
			return nil, apperr.Persistence("scan claims by etat", err)
		}
		dashboard.ClaimsByEtat = append(dashboard.ClaimsByEtat, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("dashboard claims by etat", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(billed_amount), 0) FROM interventions`,
	).Scan(&dashboard.Interventions, &dashboard.TotalBilled)
	if err != nil {
		s.log.Error("Dashboard intervention query failed", zap.Error(err))
		return nil, apperr.Persistence("dashboard interventions", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reclamations WHERE intervention_id IS NULL`,
	).Scan(&dashboard.ClaimsWithoutIntervention)
	if err != nil {
		return nil, apperr.Persistence("dashboard open claims", err)
	}

	return dashboard, nil
}
