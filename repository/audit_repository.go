package repository

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"savdesk/database"
)

type AuditRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewAuditRepository(db *gorm.DB, log *zap.Logger) *AuditRepository {
	return &AuditRepository{db: db, log: log}
}

func (r *AuditRepository) WithTx(tx *gorm.DB) *AuditRepository {
	return &AuditRepository{db: tx, log: r.log}
}

// Record appends one audit entry. Run it on the transaction of the change
// it describes.
func (r *AuditRepository) Record(ctx context.Context, userID uint, action, entityType string, entityID uint, description string) error {
	entry := database.AuditLog{
		UserID:      userID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		r.log.Error("Error writing audit log", zap.String("action", action), zap.Error(err))
		return translate("write audit log", err)
	}
	return nil
}

func (r *AuditRepository) ListForEntity(ctx context.Context, entityType string, entityID uint) ([]database.AuditLog, error) {
	var entries []database.AuditLog
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("id").
		Find(&entries).Error; err != nil {
		return nil, translate("list audit logs", err)
	}
	return entries, nil
}
