package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"savdesk/apperr"
	"savdesk/database"
	"savdesk/middleware"
	"savdesk/services"
)

// User role constants
const (
	RoleClient         = database.RoleClient
	RoleResponsableSAV = database.RoleResponsableSAV
	RoleTechnicien     = database.RoleTechnicien
)

// Response messages
const (
	msgInvalidRequest   = "Invalid request data"
	msgServerError      = "Server error"
	msgNotAuthenticated = "User not authenticated"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": message}. Store failures are logged
// and reported as a bare "Server error".
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(middleware.ContextRequestID)),
			zap.Error(err),
		)
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": msgServerError})
		return
	}

	message := apperr.Message(err)
	if message == "" {
		message = http.StatusText(status)
	}
	c.JSON(status, gin.H{"error": message})
}

// parseID reads a positive numeric path parameter. It answers 400 itself
// and returns false when the value is unusable.
func parseID(c *gin.Context, param, entity string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + entity + " ID"})
		return 0, false
	}
	return uint(id), true
}

// callerIdentity answers 401 itself when no identity is on the context.
func callerIdentity(c *gin.Context) (services.Identity, bool) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgNotAuthenticated})
		return services.Identity{}, false
	}
	return identity, true
}

// bindJSON answers 400 itself when the body does not match dst.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest, "details": err.Error()})
		return false
	}
	return true
}
