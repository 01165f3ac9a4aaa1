package database

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RunMigrations creates or updates every table and seeds the fixed Etat rows.
func RunMigrations(db *gorm.DB, log *zap.Logger) error {
	log.Info("Running database migrations...")

	if err := db.AutoMigrate(
		&User{},
		&Etat{},
		&Article{},
		&PieceRechange{},
		&Technicien{},
		&Reclamation{},
		&Intervention{},
		&Payment{},
		&AuditLog{},
	); err != nil {
		log.Error("Migration failed", zap.Error(err))
		return err
	}

	if err := SeedEtatRows(db, log); err != nil {
		return err
	}

	log.Info("Database migrations completed successfully")
	return nil
}

// SeedEtatRows inserts the three fixed statuses when they are missing.
func SeedEtatRows(db *gorm.DB, log *zap.Logger) error {
	etats := append([]Etat(nil), SeedEtats...)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&etats).Error; err != nil {
		log.Error("Failed to seed etats", zap.Error(err))
		return err
	}

	// Explicit ids do not advance the postgres sequence; move it past the
	// seeded rows so later inserts do not collide.
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("SELECT setval(pg_get_serial_sequence('etats', 'id'), (SELECT MAX(id) FROM etats))").Error; err != nil {
			log.Warn("Failed to reset etats sequence", zap.Error(err))
		}
	}
	return nil
}

// SeedDefaultResponsable creates a ResponsableSAV account if none exists.
func SeedDefaultResponsable(db *gorm.DB, email, username, passwordHash string, log *zap.Logger) error {
	var existing User
	err := db.Where("role = ?", RoleResponsableSAV).First(&existing).Error
	if err == nil {
		log.Info("ResponsableSAV account already exists")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error("Failed to check existing ResponsableSAV", zap.Error(err))
		return err
	}

	responsable := User{
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         RoleResponsableSAV,
	}
	if err := db.Create(&responsable).Error; err != nil {
		log.Error("Failed to create default ResponsableSAV", zap.Error(err))
		return err
	}

	log.Info("Default ResponsableSAV account created", zap.String("email", email))
	return nil
}
