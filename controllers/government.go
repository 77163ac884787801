package controllers

import (
	"net/http"
	"strconv"

	"blue-carbon-api/config"
	"blue-carbon-api/models"

	"github.com/gin-gonic/gin"
)

// GetPendingApprovals lists submissions waiting on the government reviewer:
// endorsed by a company or already under review.
func GetPendingApprovals(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	q := config.DB.Model(&models.Submission{}).
		Where("status IN ?", []string{models.StatusCompanyApproved, models.StatusUnderReview})
	if eco := c.Query("ecosystem_type"); eco != "" {
		q = q.Where("ecosystem_type = ?", eco)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch submissions"})
		return
	}

	var subs []models.Submission
	if err := q.
		Order("submitted_at ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&subs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch submissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "total": total, "page": page, "data": subs})
}

// GetSubmissionDetails loads any submission with its full audit trail for
// the reviewer.
func GetSubmissionDetails(c *gin.Context) {
	sub, err := submissionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": sub})
}

// StartReview claims a company-approved submission for active review.
func StartReview(c *gin.Context) {
	reviewerID, ok := actorIDFromContext(c)
	if !ok {
		return
	}

	sub, err := approvalService.StartReview(c.Request.Context(), c.Param("id"), reviewerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Submission moved under review", "data": sub})
}

// GovernmentApproveSubmission anchors the credits and finalizes the
// submission. Retryable anchoring failures come back as 502 so the reviewer
// can simply try again.
func GovernmentApproveSubmission(c *gin.Context) {
	reviewerID, ok := actorIDFromContext(c)
	if !ok {
		return
	}

	var req reviewRequest
	_ = c.ShouldBindJSON(&req)

	sub, err := approvalService.GovernmentApprove(c.Request.Context(), c.Param("id"), reviewerID, req.Comments)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Submission approved and credits anchored on the ledger",
		"data":    sub,
	})
}

// GovernmentRejectSubmission rejects a submission with a mandatory reason.
func GovernmentRejectSubmission(c *gin.Context) {
	reviewerID, ok := actorIDFromContext(c)
	if !ok {
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Rejection reason is required"})
		return
	}

	sub, err := approvalService.GovernmentReject(c.Request.Context(), c.Param("id"), reviewerID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Submission rejected", "data": sub})
}

// RequestRevision sends a submission under review back to its worker.
func RequestRevision(c *gin.Context) {
	reviewerID, ok := actorIDFromContext(c)
	if !ok {
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Revision comments are required"})
		return
	}

	sub, err := approvalService.RequestRevision(c.Request.Context(), c.Param("id"), reviewerID, req.Comments)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Revision requested", "data": sub})
}

// GetGovernmentStats aggregates the registry-wide pipeline for the reviewer
// dashboard.
func GetGovernmentStats(c *gin.Context) {
	type statusCount struct {
		Status  string  `json:"status"`
		Count   int64   `json:"count"`
		Credits float64 `json:"credits"`
	}
	var rows []statusCount
	if err := config.DB.
		Model(&models.Submission{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(carbon_credits), 0) AS credits").
		Group("status").
		Scan(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to compute stats"})
		return
	}

	var total int64
	var issuedCredits float64
	byStatus := make(map[string]int64, len(rows))
	for _, r := range rows {
		total += r.Count
		byStatus[r.Status] = r.Count
		if r.Status == models.StatusApproved {
			issuedCredits = r.Credits
		}
	}

	type ecosystemCount struct {
		EcosystemType string `json:"ecosystem_type"`
		Count         int64  `json:"count"`
	}
	var ecoRows []ecosystemCount
	config.DB.Model(&models.Submission{}).
		Select("ecosystem_type, COUNT(*) AS count").
		Group("ecosystem_type").
		Scan(&ecoRows)
	byEcosystem := make(map[string]int64, len(ecoRows))
	for _, r := range ecoRows {
		byEcosystem[r.EcosystemType] = r.Count
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"total_submissions": total,
			"by_status":         byStatus,
			"by_ecosystem":      byEcosystem,
			"issued_credits":    issuedCredits,
			"pending_review":    byStatus[models.StatusCompanyApproved] + byStatus[models.StatusUnderReview],
		},
	})
}
