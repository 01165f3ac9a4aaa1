package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"savdesk/database"
	"savdesk/services"
)

// CreateReclamationRequest is what a client submits. Status, filing date
// and owner are decided by the server.
type CreateReclamationRequest struct {
	Description string `json:"description" binding:"required"`
	ArticleID   uint   `json:"article_id" binding:"required"`
}

// UpdateReclamationRequest is the back-office overwrite of a claim
type UpdateReclamationRequest struct {
	Description    string    `json:"description" binding:"required"`
	FiledAt        time.Time `json:"filed_at"`
	ArticleID      uint      `json:"article_id" binding:"required"`
	ClientID       uint      `json:"client_id" binding:"required"`
	EtatID         uint      `json:"etat_id" binding:"required"`
	InterventionID *uint     `json:"intervention_id"`
}

// ChangeEtatRequest sets the status of a claim
type ChangeEtatRequest struct {
	EtatID uint `json:"etat_id" binding:"required"`
}

type ReclamationController struct {
	claims *services.ClaimService
	log    *zap.Logger
}

func NewReclamationController(claims *services.ClaimService, log *zap.Logger) *ReclamationController {
	return &ReclamationController{claims: claims, log: log}
}

// GetReclamations returns all claims for the back office, own claims for a client
func (ctl *ReclamationController) GetReclamations(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	claims, err := ctl.claims.GetClaims(c.Request.Context(), identity)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, claims)
}

func (ctl *ReclamationController) GetReclamationByID(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "reclamation")
	if !ok {
		return
	}
	claim, err := ctl.claims.GetClaim(c.Request.Context(), identity, id)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, claim)
}

func (ctl *ReclamationController) CreateReclamation(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	var req CreateReclamationRequest
	if !bindJSON(c, &req) {
		return
	}

	claim, err := ctl.claims.CreateClaim(c.Request.Context(), identity, database.Reclamation{
		Description: req.Description,
		ArticleID:   req.ArticleID,
	})
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusCreated, claim)
}

func (ctl *ReclamationController) UpdateReclamation(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "reclamation")
	if !ok {
		return
	}
	var req UpdateReclamationRequest
	if !bindJSON(c, &req) {
		return
	}

	claim, err := ctl.claims.UpdateClaim(c.Request.Context(), identity, database.Reclamation{
		ID:             id,
		Description:    req.Description,
		FiledAt:        req.FiledAt,
		ArticleID:      req.ArticleID,
		ClientID:       req.ClientID,
		EtatID:         req.EtatID,
		InterventionID: req.InterventionID,
	})
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, claim)
}

func (ctl *ReclamationController) ChangeReclamationEtat(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "reclamation")
	if !ok {
		return
	}
	var req ChangeEtatRequest
	if !bindJSON(c, &req) {
		return
	}

	claim, err := ctl.claims.ChangeEtat(c.Request.Context(), identity, id, req.EtatID)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, claim)
}

func (ctl *ReclamationController) DeleteReclamation(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "reclamation")
	if !ok {
		return
	}
	if err := ctl.claims.DeleteClaim(c.Request.Context(), identity, id); err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
