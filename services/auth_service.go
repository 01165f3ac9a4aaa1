package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"savdesk/apperr"
	"savdesk/database"
	"savdesk/repository"
	"savdesk/utils"
)

const minPasswordLength = 6

// Session is the result of a successful login or refresh.
type Session struct {
	Token  string        `json:"token"`
	Expiry int64         `json:"expiry"`
	User   database.User `json:"user"`
}

// StaffInput describes a back-office or technician account.
type StaffInput struct {
	Email        string
	Username     string
	Password     string
	Role         database.Role
	TechnicienID *uint
}

type AuthService struct {
	repos  *repository.Repositories
	secret string
	issuer string
	ttl    time.Duration
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(repos *repository.Repositories, secret, issuer string, ttl time.Duration, log *zap.Logger) *AuthService {
	return &AuthService{repos: repos, secret: secret, issuer: issuer, ttl: ttl, log: log, now: time.Now}
}

// Register creates a Client account. The role is never taken from the
// request.
func (s *AuthService) Register(ctx context.Context, email, username, password, phone, address string) (*Session, error) {
	if err := validateCredentials(email, username, password); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, database.User{
		Email:    email,
		Username: username,
		Role:     database.RoleClient,
		Phone:    phone,
		Address:  address,
	}, password)
	if err != nil {
		return nil, err
	}

	s.log.Info("Client registered", zap.Uint("user_id", user.ID))
	return s.issue(*user)
}

// Login checks credentials and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	if blank(email) || password == "" {
		return nil, apperr.Validation("Email and password are required")
	}

	user, err := s.repos.User.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Unauthorized("Invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		s.log.Warn("Failed login attempt", zap.Uint("user_id", user.ID))
		return nil, apperr.Unauthorized("Invalid email or password")
	}

	return s.issue(*user)
}

// Refresh reissues a token for a caller whose account still exists.
func (s *AuthService) Refresh(ctx context.Context, caller Identity) (*Session, error) {
	user, err := s.repos.User.GetByID(ctx, caller.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Unauthorized("User no longer exists")
	}
	if err != nil {
		return nil, err
	}
	return s.issue(*user)
}

// Profile returns the caller's own account.
func (s *AuthService) Profile(ctx context.Context, caller Identity) (*database.User, error) {
	return s.repos.User.GetByID(ctx, caller.UserID)
}

// CreateStaff lets the back office open ResponsableSAV and Technicien
// accounts. A technician account must point at an existing technician.
func (s *AuthService) CreateStaff(ctx context.Context, caller Identity, in StaffInput) (*database.User, error) {
	if !caller.Is(database.RoleResponsableSAV) {
		return nil, apperr.Forbidden("Permission denied")
	}
	if err := validateCredentials(in.Email, in.Username, in.Password); err != nil {
		return nil, err
	}

	user := database.User{
		Email:    in.Email,
		Username: in.Username,
		Role:     in.Role,
	}
	switch in.Role {
	case database.RoleResponsableSAV:
	case database.RoleTechnicien:
		if in.TechnicienID == nil {
			return nil, apperr.Validation("Technicien ID is required for a technician account")
		}
		if _, err := s.repos.Technicien.GetByID(ctx, *in.TechnicienID); err != nil {
			return nil, err
		}
		user.TechnicienID = in.TechnicienID
	default:
		return nil, apperr.Validation("Role must be ResponsableSAV or Technicien")
	}

	created, err := s.createUser(ctx, user, in.Password)
	if err != nil {
		return nil, err
	}
	s.log.Info("Staff account created",
		zap.Uint("user_id", created.ID),
		zap.String("role", string(created.Role)),
		zap.Uint("created_by", caller.UserID),
	)
	return created, nil
}

// ListClients is the back-office view of client accounts.
func (s *AuthService) ListClients(ctx context.Context, caller Identity) ([]database.User, error) {
	if !caller.Is(database.RoleResponsableSAV) {
		return nil, apperr.Forbidden("Permission denied")
	}
	return s.repos.User.ListByRole(ctx, database.RoleClient)
}

func (s *AuthService) GetClient(ctx context.Context, caller Identity, id uint) (*database.User, error) {
	if !caller.Is(database.RoleResponsableSAV) {
		return nil, apperr.Forbidden("Permission denied")
	}
	return s.repos.User.GetClient(ctx, id)
}

func (s *AuthService) createUser(ctx context.Context, user database.User, password string) (*database.User, error) {
	taken, err := s.repos.User.ExistsByEmailOrUsername(ctx, user.Email, user.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Conflict("Email or username already in use")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		s.log.Error("Error hashing password", zap.Error(err))
		return nil, apperr.Persistence("hash password", err)
	}
	user.PasswordHash = hash

	if err := s.repos.User.Create(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) issue(user database.User) (*Session, error) {
	expiresAt := s.now().Add(s.ttl)
	token, err := utils.GenerateJWT(s.secret, s.issuer, utils.JWTClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Username:     user.Username,
		Role:         string(user.Role),
		TechnicienID: user.TechnicienID,
	}, expiresAt)
	if err != nil {
		s.log.Error("Error generating token", zap.Error(err))
		return nil, apperr.Persistence("generate token", err)
	}

	user.PasswordHash = ""
	return &Session{Token: token, Expiry: expiresAt.Unix(), User: user}, nil
}

func validateCredentials(email, username, password string) error {
	if blank(email) {
		return apperr.Validation("Email is required")
	}
	if blank(username) {
		return apperr.Validation("Username is required")
	}
	if len(password) < minPasswordLength {
		return apperr.Validation("Password must be at least %d characters", minPasswordLength)
	}
	return nil
}
