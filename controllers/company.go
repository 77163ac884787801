package controllers

import (
	"net/http"
	"strconv"

	"blue-carbon-api/config"
	"blue-carbon-api/models"
	"blue-carbon-api/services"

	"github.com/gin-gonic/gin"
)

type reviewRequest struct {
	Comments string `json:"comments"`
	Reason   string `json:"reason"`
}

// GetCompanySubmissions lists submissions filed by the calling company's
// workers.
func GetCompanySubmissions(c *gin.Context) {
	companyID, ok := actorIDFromContext(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	subs, total, err := submissionService.List(c.Request.Context(), services.SubmissionFilter{
		CompanyID:     companyID,
		Status:        c.Query("status"),
		EcosystemType: c.Query("ecosystem_type"),
		Page:          page,
		PageSize:      pageSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "total": total, "page": page, "data": subs})
}

// GetCompanySubmission loads one submission owned by the calling company.
func GetCompanySubmission(c *gin.Context) {
	companyID, ok := actorIDFromContext(c)
	if !ok {
		return
	}

	sub, err := submissionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if sub.CompanyID != companyID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Submission belongs to a different company"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": sub})
}

// CompanyApproveSubmission endorses a pending submission for government
// review.
func CompanyApproveSubmission(c *gin.Context) {
	companyID, ok := actorIDFromContext(c)
	if !ok {
		return
	}

	var req reviewRequest
	_ = c.ShouldBindJSON(&req)

	sub, err := approvalService.CompanyApprove(c.Request.Context(), c.Param("id"), companyID, req.Comments)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Submission approved and forwarded for government review",
		"data":    sub,
	})
}

// CompanyRejectSubmission rejects a pending submission with a reason.
func CompanyRejectSubmission(c *gin.Context) {
	companyID, ok := actorIDFromContext(c)
	if !ok {
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Rejection reason is required"})
		return
	}

	sub, err := approvalService.CompanyReject(c.Request.Context(), c.Param("id"), companyID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Submission rejected", "data": sub})
}

// GetCompanyDashboard aggregates the company's submission pipeline: counts
// per status plus issued credit totals.
func GetCompanyDashboard(c *gin.Context) {
	companyID, ok := actorIDFromContext(c)
	if !ok {
		return
	}

	type statusCount struct {
		Status  string  `json:"status"`
		Count   int64   `json:"count"`
		Credits float64 `json:"credits"`
	}
	var rows []statusCount
	if err := config.DB.
		Model(&models.Submission{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(carbon_credits), 0) AS credits").
		Where("company_id = ?", companyID).
		Group("status").
		Scan(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to compute dashboard"})
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

	var workerCount int64
	config.DB.Model(&models.Worker{}).Where("company_id = ?", companyID).Count(&workerCount)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"total_submissions": total,
			"by_status":         byStatus,
			"issued_credits":    issuedCredits,
			"workers":           workerCount,
		},
	})
}
