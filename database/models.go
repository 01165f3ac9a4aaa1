package database

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the authoritative authorization variant of a user.
type Role string

// User roles
const (
	RoleClient         Role = "Client"
	RoleResponsableSAV Role = "ResponsableSAV"
	RoleTechnicien     Role = "Technicien"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleResponsableSAV, RoleTechnicien:
		return true
	}
	return false
}

// User is one account of the user population. Role selects the variant:
// Client accounts carry contact details, Technicien accounts point at the
// technician record they act for.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Username     string `gorm:"size:100;not null;uniqueIndex" json:"username"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         Role   `gorm:"size:21;not null;index" json:"role"`

	// Client
	Phone   string `gorm:"size:30" json:"phone,omitempty"`
	Address string `gorm:"size:255" json:"address,omitempty"`

	// Technicien
	TechnicienID *uint `gorm:"index" json:"technicien_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Etat is a claim status.
type Etat struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Label string `gorm:"size:100;not null" json:"label"`
}

func (Etat) TableName() string { return "etats" }

// Seeded status ids.
const (
	EtatPending    uint = 1
	EtatProcessed  uint = 2
	EtatInProgress uint = 3
)

// SeedEtats is the fixed status set provisioned with the schema.
var SeedEtats = []Etat{
	{ID: EtatPending, Label: "En Attente"},
	{ID: EtatProcessed, Label: "Traité"},
	{ID: EtatInProgress, Label: "En Cours"},
}

// Article is a purchased product a claim can be filed against.
type Article struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Label         string          `gorm:"size:255;not null" json:"label"`
	UnderWarranty bool            `gorm:"not null;default:false" json:"under_warranty"`
	Price         decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	ImageURL      *string         `gorm:"size:512" json:"image_url,omitempty"`
	PurchaseDate  *time.Time      `json:"purchase_date,omitempty"`
	OwnerClientID *uint           `gorm:"index" json:"owner_client_id,omitempty"`
	Owner         *User           `gorm:"foreignKey:OwnerClientID" json:"owner,omitempty"`
	Pieces        []PieceRechange `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE" json:"pieces,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Article) TableName() string { return "articles" }

// PieceRechange is a spare part compatible with exactly one article.
type PieceRechange struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	ArticleID uint            `gorm:"not null;index" json:"article_id"`
	ImageURL  *string         `gorm:"size:512" json:"image_url,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (PieceRechange) TableName() string { return "pieces_rechange" }

// Technicien performs interventions.
type Technicien struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	Phone     string    `gorm:"size:30" json:"phone"`
	Specialty string    `gorm:"size:255" json:"specialty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Technicien) TableName() string { return "techniciens" }

// Reclamation is a claim filed by a client against an article.
// InterventionID is unique so at most one claim points at an intervention.
type Reclamation struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Description    string    `gorm:"type:text;not null" json:"description"`
	FiledAt        time.Time `gorm:"not null;index" json:"filed_at"`
	ArticleID      uint      `gorm:"not null;index" json:"article_id"`
	Article        *Article  `gorm:"foreignKey:ArticleID" json:"article,omitempty"`
	ClientID       uint      `gorm:"not null;index" json:"client_id"`
	Client         *User     `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	EtatID         uint      `gorm:"not null;index" json:"etat_id"`
	Etat           *Etat     `gorm:"foreignKey:EtatID" json:"etat,omitempty"`
	InterventionID *uint     `gorm:"uniqueIndex" json:"intervention_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Reclamation) TableName() string { return "reclamations" }

// Intervention is the recorded repair work for one claim. The unique index
// on ReclamationID is what serializes concurrent creations for a claim.
type Intervention struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	PerformedAt   time.Time       `gorm:"not null" json:"performed_at"`
	Description   string          `gorm:"type:text;not null" json:"description"`
	PartsPrice    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"parts_price"`
	LaborFee      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"labor_fee"`
	BilledAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"billed_amount"`
	TechnicienID  uint            `gorm:"not null;index" json:"technicien_id"`
	Technicien    *Technicien     `gorm:"foreignKey:TechnicienID" json:"technicien,omitempty"`
	ReclamationID uint            `gorm:"not null;uniqueIndex" json:"reclamation_id"`
	Reclamation   *Reclamation    `gorm:"foreignKey:ReclamationID" json:"reclamation,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Intervention) TableName() string { return "interventions" }

// Payment settles the billed amount of an intervention.
type Payment struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	InterventionID    uint            `gorm:"not null;index" json:"intervention_id"`
	Intervention      *Intervention   `gorm:"foreignKey:InterventionID" json:"intervention,omitempty"`
	ClientID          uint            `gorm:"not null;index" json:"client_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Currency          string          `gorm:"size:3;not null" json:"currency"`
	Status            string          `gorm:"size:20;not null;index" json:"status"`
	ProviderOrderID   string          `gorm:"size:64;index" json:"provider_order_id"`
	ProviderPaymentID string          `gorm:"size:64" json:"provider_payment_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

// Payment status values
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)
