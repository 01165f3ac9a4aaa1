package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"savdesk/database"
	"savdesk/services"
)

// AdminController serves the back-office dashboard and the health probes.
type AdminController struct {
	dashboard *services.DashboardService
	db        *gorm.DB
	log       *zap.Logger
}

func NewAdminController(dashboard *services.DashboardService, db *gorm.DB, log *zap.Logger) *AdminController {
	return &AdminController{dashboard: dashboard, db: db, log: log}
}

// AdminDashboard returns the claim queue statistics
func (ctl *AdminController) AdminDashboard(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	summary, err := ctl.dashboard.Summary(c.Request.Context(), identity)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (ctl *AdminController) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports 503 while the database cannot be reached.
func (ctl *AdminController) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := database.Ping(ctx, ctl.db); err != nil {
		ctl.log.Warn("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
