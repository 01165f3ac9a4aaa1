package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"savdesk/database"
	"savdesk/services"
)

// LoginRequest contains the credentials for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest contains the data for client registration
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// StaffRequest contains the data for a back-office or technician account
type StaffRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password" binding:"required,min=6"`
	Role         string `json:"role" binding:"required,oneof=ResponsableSAV Technicien"`
	TechnicienID *uint  `json:"technicien_id"`
}

type AuthController struct {
	auth *services.AuthService
	log  *zap.Logger
}

func NewAuthController(auth *services.AuthService, log *zap.Logger) *AuthController {
	return &AuthController{auth: auth, log: log}
}

// Register creates a client account and logs it in
func (ctl *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := ctl.auth.Register(c.Request.Context(), req.Email, req.Username, req.Password, req.Phone, req.Address)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// Login handles user authentication and returns a JWT token
func (ctl *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := ctl.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// RefreshToken refreshes the JWT token
func (ctl *AuthController) RefreshToken(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}

	session, err := ctl.auth.Refresh(c.Request.Context(), identity)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":  session.Token,
		"expiry": session.Expiry,
	})
}

func (ctl *AuthController) GetProfile(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}

	user, err := ctl.auth.Profile(c.Request.Context(), identity)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (ctl *AuthController) CreateStaff(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	var req StaffRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ctl.auth.CreateStaff(c.Request.Context(), identity, services.StaffInput{
		Email:        req.Email,
		Username:     req.Username,
		Password:     req.Password,
		Role:         database.Role(req.Role),
		TechnicienID: req.TechnicienID,
	})
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (ctl *AuthController) GetClients(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}

	clients, err := ctl.auth.ListClients(c.Request.Context(), identity)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

func (ctl *AuthController) GetClientByID(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "client")
	if !ok {
		return
	}

	client, err := ctl.auth.GetClient(c.Request.Context(), identity, id)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, client)
}
