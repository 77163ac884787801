package controllers

import (
	"net/http"

	"blue-carbon-api/services"

	"github.com/gin-gonic/gin"
)

// Package-level services, wired once from main after InitDB.
var (
	submissionService   *services.SubmissionService
	approvalService     *services.ApprovalService
	notificationService *services.NotificationService
)

// InitServices builds the service graph with the HTTP collaborator clients.
func InitServices() {
	notificationService = services.NewNotificationService(nil)
	submissionService = services.NewSubmissionService(nil, nil, services.NewHTTPMLClient(nil), notificationService)

	ledger := services.NewHTTPLedgerClient(nil)
	anchoring := services.NewAnchoringService(services.NewHTTPPinningClient(nil), ledger, ledger.Network())
	approvalService = services.NewApprovalService(nil, anchoring, notificationService)
}

// respondError maps a service error onto the HTTP surface. Only the stable
// kind and the human message leak out; wrapped causes stay in the logs.
func respondError(c *gin.Context, err error) {
	appErr := services.AsAppError(err)
	body := gin.H{
		"success": false,
		"error":   appErr.Kind,
		"message": appErr.Message,
	}
	if appErr.ConflictingSubmissionID != "" {
		body["conflicting_submission_id"] = appErr.ConflictingSubmissionID
		body["conflict_expires_at"] = appErr.ConflictExpiresAt
	}
	c.JSON(services.HTTPStatus(appErr.Kind), body)
}

func actorIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get("actorID")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal", "message": "invalid actor context"})
		return 0, false
	}
	id, ok := value.(uint)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal", "message": "invalid actor context"})
		return 0, false
	}
	return id, true
}
