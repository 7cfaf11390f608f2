package routes

import (
	"safety-compliance-api/controllers"
	"safety-compliance-api/middleware"
	"safety-compliance-api/models"
	"safety-compliance-api/services"

	"github.com/gin-gonic/gin"
)

// Handlers bundles the constructed controllers for route registration.
type Handlers struct {
	Store          *services.RecordStore
	Auth           *controllers.AuthController
	Subcontractors *controllers.SubcontractorController
	RMPs           *controllers.RMPController
	Documents      *controllers.DocumentController
	Comments       *controllers.CommentController
}

func SetupRoutes(router *gin.Engine, h Handlers) {
	// Signed document downloads; the URL signature is the authorization.
	router.GET("/uploads/rmps/:filename", h.Documents.Serve)

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/signup", h.Auth.Signup)
			public.POST("/login", h.Auth.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Safety Compliance API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(h.Store))
		{
			protected.GET("/profile", h.Auth.GetProfile)

			// Subcontractors and injury statistics
			subcontractors := protected.Group("/subcontractors")
			{
				subcontractors.GET("", h.Subcontractors.Dashboard)
				subcontractors.GET("/:id/trir", h.Subcontractors.GetTRIR)

				// Only safety managers maintain the compliance records
				subcontractors.POST("", middleware.RequireRole(models.RoleSafetyManager), h.Subcontractors.Create)
				subcontractors.PUT("/:id", middleware.RequireRole(models.RoleSafetyManager), h.Subcontractors.Update)
				subcontractors.POST("/:id/years", middleware.RequireRole(models.RoleSafetyManager), h.Subcontractors.AddYear)
				subcontractors.PUT("/:id/years", middleware.RequireRole(models.RoleSafetyManager), h.Subcontractors.UpsertYear)
			}

			// RMP workflow
			rmps := protected.Group("/rmps")
			{
				rmps.GET("", h.RMPs.List)
				rmps.POST("", h.RMPs.Create)
				rmps.GET("/:id", h.RMPs.Detail)

				// Only safety managers decide the workflow status
				rmps.POST("/:id/status", middleware.RequireRole(models.RoleSafetyManager), h.RMPs.SetStatus)

				// Documents and comments, gated on the RMP's status
				rmps.POST("/:id/documents", h.Documents.Upload)
				rmps.GET("/:id/documents", h.Documents.List)
				rmps.GET("/:id/documents/:document_id", h.Documents.Download)
				rmps.POST("/:id/comments", h.Comments.Add)
			}
		}
	}
}
