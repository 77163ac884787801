package routes

import (
	"blue-carbon-api/controllers"
	"blue-carbon-api/middleware"
	"blue-carbon-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication, one endpoint per role table
			public.POST("/worker/signin", controllers.WorkerSignin)
			public.POST("/company/signin", controllers.CompanySignin)
			public.POST("/government/signin", controllers.GovSignin)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Blue Carbon Registry API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// Notifications (all authenticated roles)
			protected.GET("/notifications", controllers.GetMyNotifications)
			protected.PATCH("/notifications/:id/read", controllers.MarkNotificationRead)

			// Worker surface: submissions and area checks
			worker := protected.Group("/worker")
			worker.Use(middleware.RequireRole(models.RoleWorker))
			{
				worker.POST("/submissions", controllers.CreateSubmission)
				worker.GET("/submissions", controllers.GetMySubmissions)
				worker.GET("/submissions/:id", controllers.GetMySubmission)
				worker.POST("/submissions/:id/resubmit", controllers.ResubmitSubmission)
				worker.GET("/check-area", controllers.CheckAreaAvailability)
				worker.GET("/validate-coordinates", controllers.ValidateCoordinates)
			}

			// Company surface: worker management and first-stage review
			company := protected.Group("/company")
			company.Use(middleware.RequireRole(models.RoleCompany))
			{
				company.POST("/workers", controllers.CreateWorker)
				company.GET("/workers", controllers.GetCompanyWorkers)

				company.GET("/submissions", controllers.GetCompanySubmissions)
				company.GET("/submissions/:id", controllers.GetCompanySubmission)
				company.POST("/submissions/:id/approve", controllers.CompanyApproveSubmission)
				company.POST("/submissions/:id/reject", controllers.CompanyRejectSubmission)

				company.GET("/dashboard", controllers.GetCompanyDashboard)
			}

			// Government surface: final review and credit anchoring
			government := protected.Group("/government")
			government.Use(middleware.RequireRole(models.RoleGovernment))
			{
				government.GET("/submissions", controllers.GetPendingApprovals)
				government.GET("/submissions/:id", controllers.GetSubmissionDetails)
				government.POST("/submissions/:id/review", controllers.StartReview)
				government.POST("/submissions/:id/approve", controllers.GovernmentApproveSubmission)
				government.POST("/submissions/:id/reject", controllers.GovernmentRejectSubmission)
				government.POST("/submissions/:id/request-revision", controllers.RequestRevision)

				government.GET("/stats", controllers.GetGovernmentStats)
			}
		}
	}
}
