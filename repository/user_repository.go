package repository

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"savdesk/apperr"
	"savdesk/database"
)

type UserRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewUserRepository(db *gorm.DB, log *zap.Logger) *UserRepository {
	return &UserRepository{db: db, log: log}
}

func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx, log: r.log}
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*database.User, error) {
	var user database.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("User with ID %d not found", id)
	}
	if err != nil {
		return nil, translate("get user", err)
	}
	return &user, nil
}

// GetByEmail looks a user up by the lower-cased email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*database.User, error) {
	var user database.User
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("User with email %s not found", email)
	}
	if err != nil {
		return nil, translate("get user by email", err)
	}
	return &user, nil
}

// ExistsByEmailOrUsername reports whether either value is taken.
func (r *UserRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&database.User{}).
		Where("email = ? OR username = ?", strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(username)).
		Count(&count).Error
	if err != nil {
		return false, translate("check user", err)
	}
	return count > 0, nil
}

// GetClient returns a user only if it has the Client role.
func (r *UserRepository) GetClient(ctx context.Context, id uint) (*database.User, error) {
	var user database.User
	err := r.db.WithContext(ctx).Where("id = ? AND role = ?", id, database.RoleClient).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Client with ID %d not found", id)
	}
	if err != nil {
		return nil, translate("get client", err)
	}
	return &user, nil
}

func (r *UserRepository) ListByRole(ctx context.Context, role database.Role) ([]database.User, error) {
	var users []database.User
	if err := r.db.WithContext(ctx).Where("role = ?", role).Order("id").Find(&users).Error; err != nil {
		return nil, translate("list users", err)
	}
	return users, nil
}

// CountByRole is used by the startup seed to detect an empty back office.
func (r *UserRepository) CountByRole(ctx context.Context, role database.Role) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&database.User{}).Where("role = ?", role).Count(&count).Error; err != nil {
		return 0, translate("count users", err)
	}
	return count, nil
}

func (r *UserRepository) Create(ctx context.Context, user *database.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Username = strings.TrimSpace(user.Username)
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicate(err) {
			return apperr.Conflict("Email or username already in use")
		}
		r.log.Error("Error creating user", zap.String("email", user.Email), zap.Error(err))
		return translate("create user", err)
	}
	return nil
}
