package controllers

import (
	"net/http"
	"strconv"

	"blue-carbon-api/config"
	"blue-carbon-api/models"
	"blue-carbon-api/services"
	"blue-carbon-api/utils"

	"github.com/gin-gonic/gin"
)

type createSubmissionRequest struct {
	EcosystemType string                       `json:"ecosystem_type" binding:"required"`
	Latitude      float64                      `json:"latitude"`
	Longitude     float64                      `json:"longitude"`
	AreaName      string                       `json:"area_name"`
	AreaSizeHa    float64                      `json:"area_size_ha"`
	RadiusM       float64                      `json:"radius_m"`
	Plantation    *services.PlantationInput    `json:"plantation"`
	Seagrass      *models.SeagrassMeasurements `json:"seagrass"`
	Files         []models.ManifestFile        `json:"files"`
}

// CreateSubmission opens a new survey submission for the calling worker.
func CreateSubmission(c *gin.Context) {
	workerID, ok := actorIDFromContext(c)
	if !ok {
		return
	}

	var req createSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body: " + err.Error()})
		return
	}

	var worker models.Worker
	if err := config.DB.First(&worker, workerID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Worker account not found"})
		return
	}

	sub, err := submissionService.Create(c.Request.Context(), &services.CreateSubmissionInput{
		WorkerID:      workerID,
		CompanyID:     worker.CompanyID,
		EcosystemType: req.EcosystemType,
		Plantation:    req.Plantation,
		Seagrass:      req.Seagrass,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		AreaName:      req.AreaName,
		AreaSizeHa:    req.AreaSizeHa,
		RadiusM:       req.RadiusM,
		Files:         req.Files,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Submission created successfully and sent for company approval",
		"data":    sub,
	})
}

// GetMySubmissions lists the calling worker's submissions.
func GetMySubmissions(c *gin.Context) {
	workerID, ok := actorIDFromContext(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	subs, total, err := submissionService.List(c.Request.Context(), services.SubmissionFilter{
		WorkerID:      workerID,
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

// GetMySubmission loads one of the calling worker's submissions.
func GetMySubmission(c *gin.Context) {
	workerID, ok := actorIDFromContext(c)
	if !ok {
		return
	}

	sub, err := submissionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if sub.WorkerID != workerID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Submission belongs to a different worker"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": sub})
}

// CheckAreaAvailability answers whether a survey location is free to claim.
func CheckAreaAvailability(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("latitude"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("longitude"), 64)
	if errLat != nil || errLon != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "latitude and longitude query parameters are required"})
		return
	}
	radius, _ := strconv.ParseFloat(c.DefaultQuery("radius_m", "0"), 64)

	result, err := submissionService.CheckAreaAvailability(c.Request.Context(), lat, lon, c.Query("ecosystem_type"), radius)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// ValidateCoordinates is a lightweight pre-check for the mobile client
// before it captures survey data.
func ValidateCoordinates(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("latitude"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("longitude"), 64)
	if errLat != nil || errLon != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "latitude and longitude query parameters are required"})
		return
	}

	if ok, reason := utils.ValidateCoordinates(lat, lon); !ok {
		c.JSON(http.StatusOK, gin.H{"success": true, "valid": false, "message": reason})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "valid": true})
}

// ResubmitSubmission loops a revision-requested submission back to pending.
func ResubmitSubmission(c *gin.Context) {
	workerID, ok := actorIDFromContext(c)
	if !ok {
		return
	}

	sub, err := approvalService.Resubmit(c.Request.Context(), c.Param("id"), workerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Submission resubmitted for company approval",
		"data":    sub,
	})
}
