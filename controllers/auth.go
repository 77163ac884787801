package controllers

import (
	"crypto/rand"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"blue-carbon-api/config"
	"blue-carbon-api/middleware"
	"blue-carbon-api/models"
	"blue-carbon-api/services"
	"blue-carbon-api/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenLifetime = 7 * 24 * time.Hour

type signinRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func signToken(actorID uint, email, role string) (string, error) {
	claims := middleware.Claims{
		ActorID: actorID,
		Email:   email,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

// WorkerSignin authenticates a field worker and issues a JWT.
func WorkerSignin(c *gin.Context) {
	var req signinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please provide both email and password"})
		return
	}

	var worker models.Worker
	if err := config.DB.Where("email = ? AND is_active = true", req.Email).First(&worker).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid email or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(worker.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid email or password"})
		return
	}

	token, err := signToken(worker.ID, worker.Email, models.RoleWorker)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to issue token"})
		return
	}

	now := time.Now()
	config.DB.Model(&worker).Update("last_login", &now)

	c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "worker": worker})
}

// CompanySignin authenticates a sponsoring company account.
func CompanySignin(c *gin.Context) {
	var req signinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please provide both email and password"})
		return
	}

	var company models.Company
	if err := config.DB.Where("email = ?", req.Email).First(&company).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid email or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(company.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid email or password"})
		return
	}

	token, err := signToken(company.ID, company.Email, models.RoleCompany)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "company": company})
}

// GovSignin authenticates a government reviewer.
func GovSignin(c *gin.Context) {
	var req signinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please provide both email and password"})
		return
	}

	var gov models.GovUser
	if err := config.DB.Where("email = ?", req.Email).First(&gov).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid email or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(gov.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid email or password"})
		return
	}

	token, err := signToken(gov.ID, gov.Email, models.RoleGovernment)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to issue token"})
		return
	}

	now := time.Now()
	config.DB.Model(&gov).Update("last_login", &now)

	c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "gov_user": gov})
}

type createWorkerRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Phone       string `json:"phone"`
	Designation string `json:"designation"`
}

// CreateWorker provisions a worker account under the calling company and
// emails the generated credentials.
func CreateWorker(c *gin.Context) {
	companyID, ok := actorIDFromContext(c)
	if !ok {
		return
	}

	var req createWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please provide all required fields"})
		return
	}
	if !utils.ValidateEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid email address"})
		return
	}

	var existing int64
	config.DB.Model(&models.Worker{}).Where("email = ?", req.Email).Count(&existing)
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Worker with this email already exists"})
		return
	}

	var company models.Company
	if err := config.DB.First(&company, companyID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Company not found"})
		return
	}

	tempPassword, err := services.GenerateTempPassword(rand.Reader)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to generate credentials"})
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to generate credentials"})
		return
	}

	designation := req.Designation
	if designation == "" {
		designation = "Field Data Collector"
	}

	worker := models.Worker{
		WorkerID:    fmt.Sprintf("WKR-%d", time.Now().UnixMilli()),
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Password:    string(hashed),
		Designation: designation,
		CompanyID:   company.ID,
		IsActive:    true,
	}
	if err := config.DB.Create(&worker).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create worker"})
		return
	}

	subject := fmt.Sprintf("Welcome to %s - Worker Account Created", company.CompanyName)
	body := fmt.Sprintf(
		"<p>Dear %s,</p><p>Your worker account for carbon credit data collection is ready.</p>"+
			"<p>Worker ID: %s<br>Email: %s<br>Password: %s</p>"+
			"<p>Please sign in and change your password.</p>",
		req.Name, worker.WorkerID, req.Email, tempPassword)
	go func() {
		if err := config.SendMail([]string{req.Email}, subject, body); err != nil {
			log.Printf("Warning: failed to send worker credentials to %s: %v", req.Email, err)
		}
	}()

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Worker created successfully! Login credentials sent to worker email.",
		"data":    worker,
	})
}

// GetCompanyWorkers lists the calling company's workers.
func GetCompanyWorkers(c *gin.Context) {
	companyID, ok := actorIDFromContext(c)
	if !ok {
		return
	}

	var workers []models.Worker
	if err := config.DB.
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&workers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch workers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(workers), "data": workers})
}
