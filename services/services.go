package services

import (
	"database/sql"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"savdesk/config"
	"savdesk/repository"
)

// Services is the set of business services shared by the HTTP handlers.
type Services struct {
	Repos         *repository.Repositories
	Claims        *ClaimService
	Interventions *InterventionService
	Auth          *AuthService
	Payments      *PaymentService
	Dashboard     *DashboardService
}

// New wires every service on the given stores. reporting may be the raw
// handle of db itself.
func New(cfg config.Config, db *gorm.DB, reporting *sql.DB, gateway PaymentGateway, log *zap.Logger) *Services {
	repos := repository.NewRepositories(db, log)
	return &Services{
		Repos:         repos,
		Claims:        NewClaimService(db, repos, log),
		Interventions: NewInterventionService(db, repos, log),
		Auth:          NewAuthService(repos, cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpiration(), log),
		Payments:      NewPaymentService(repos, gateway, cfg.RazorpaySecret, cfg.PaymentCurrency, log),
		Dashboard:     NewDashboardService(reporting, log),
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
