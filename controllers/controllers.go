package controllers

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"savdesk/services"
)

// Controllers holds every HTTP handler group.
type Controllers struct {
	Auth         *AuthController
	Catalog      *CatalogController
	Reclamation  *ReclamationController
	Intervention *InterventionController
	Payment      *PaymentController
	Admin        *AdminController
}

func New(svc *services.Services, db *gorm.DB, paymentKeyID string, log *zap.Logger) *Controllers {
	return &Controllers{
		Auth:         NewAuthController(svc.Auth, log),
		Catalog:      NewCatalogController(svc.Repos, log),
		Reclamation:  NewReclamationController(svc.Claims, log),
		Intervention: NewInterventionController(svc.Interventions, log),
		Payment:      NewPaymentController(svc.Payments, paymentKeyID, log),
		Admin:        NewAdminController(svc.Dashboard, db, log),
	}
}
