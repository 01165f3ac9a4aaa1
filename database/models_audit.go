package database

import (
	"time"
)

// AuditLog records state changes of claims and interventions.
type AuditLog struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"index" json:"user_id"`
	Action      string    `gorm:"size:50;not null" json:"action"`
	EntityType  string    `gorm:"size:50;not null" json:"entity_type"`
	EntityID    uint      `gorm:"not null;index" json:"entity_id"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// Audit actions
const (
	AuditInterventionRecorded = "intervention.recorded"
	AuditInterventionRevised  = "intervention.revised"
	AuditInterventionDeleted  = "intervention.deleted"
	AuditClaimStatusChanged   = "reclamation.etat_changed"
)
