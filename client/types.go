package client

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is an account as the API returns it.
type User struct {
	ID           uint      `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	TechnicienID *uint     `json:"technicien_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Claim is a reclamation. InterventionID is nil until an intervention is
// recorded.
type Claim struct {
	ID             uint      `json:"id"`
	Description    string    `json:"description"`
	FiledAt        time.Time `json:"filed_at"`
	ArticleID      uint      `json:"article_id"`
	ClientID       uint      `json:"client_id"`
	EtatID         uint      `json:"etat_id"`
	InterventionID *uint     `json:"intervention_id"`
}

type Intervention struct {
	ID            uint            `json:"id"`
	ReclamationID uint            `json:"reclamation_id"`
	TechnicienID  uint            `json:"technicien_id"`
	Description   string          `json:"description"`
	PerformedAt   time.Time       `json:"performed_at"`
	PartsPrice    decimal.Decimal `json:"parts_price"`
	LaborFee      decimal.Decimal `json:"labor_fee"`
	BilledAmount  decimal.Decimal `json:"billed_amount"`
}
