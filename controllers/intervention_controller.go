package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"savdesk/services"
)

// InterventionRequest records or revises the intervention of a claim.
// Amounts are always computed server side.
type InterventionRequest struct {
	ReclamationID uint      `json:"reclamation_id"`
	TechnicienID  uint      `json:"technicien_id" binding:"required"`
	Description   string    `json:"description" binding:"required"`
	PerformedAt   time.Time `json:"performed_at"`
	PieceIDs      []uint    `json:"piece_ids"`
}

func (req InterventionRequest) input() services.RecordInterventionInput {
	return services.RecordInterventionInput{
		ClaimID:      req.ReclamationID,
		TechnicienID: req.TechnicienID,
		Description:  req.Description,
		PerformedAt:  req.PerformedAt,
		PartIDs:      req.PieceIDs,
	}
}

type InterventionController struct {
	interventions *services.InterventionService
	log           *zap.Logger
}

func NewInterventionController(interventions *services.InterventionService, log *zap.Logger) *InterventionController {
	return &InterventionController{interventions: interventions, log: log}
}

func (ctl *InterventionController) GetInterventions(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	interventions, err := ctl.interventions.GetInterventions(c.Request.Context(), identity)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, interventions)
}

func (ctl *InterventionController) GetInterventionByID(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "intervention")
	if !ok {
		return
	}
	intervention, err := ctl.interventions.GetIntervention(c.Request.Context(), identity, id)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, intervention)
}

// GetTechnicienInterventions lists the work of one technician
func (ctl *InterventionController) GetTechnicienInterventions(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "technicien")
	if !ok {
		return
	}
	interventions, err := ctl.interventions.GetInterventionsByTechnicien(c.Request.Context(), identity, id)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, interventions)
}

// RecordIntervention answers 201 when the claim got its first intervention
// and 200 when an existing one was revised.
func (ctl *InterventionController) RecordIntervention(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	var req InterventionRequest
	if !bindJSON(c, &req) {
		return
	}

	intervention, created, err := ctl.interventions.RecordIntervention(c.Request.Context(), identity, req.input())
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, intervention)
}

func (ctl *InterventionController) UpdateIntervention(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "intervention")
	if !ok {
		return
	}
	var req InterventionRequest
	if !bindJSON(c, &req) {
		return
	}

	intervention, err := ctl.interventions.ReviseIntervention(c.Request.Context(), identity, id, req.input())
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, intervention)
}

func (ctl *InterventionController) DeleteIntervention(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "intervention")
	if !ok {
		return
	}
	if err := ctl.interventions.DeleteIntervention(c.Request.Context(), identity, id); err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
