package routes

import (
	"github.com/gin-gonic/gin"

	"savdesk/controllers"
	"savdesk/middleware"
)

// SetupRoutes configures all application routes
func SetupRoutes(r *gin.Engine, ctl *controllers.Controllers, jwtSecret string) {
	r.GET("/health/live", ctl.Admin.Live)
	r.GET("/health/ready", ctl.Admin.Ready)

	// Public routes (no authentication required)
	public := r.Group("/api")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/register", ctl.Auth.Register)
			auth.POST("/login", ctl.Auth.Login)
		}
	}

	// Protected routes (authentication required)
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtSecret))

	responsable := middleware.ResponsableOnly()
	client := middleware.ClientOnly()

	protected.POST("/auth/refresh", ctl.Auth.RefreshToken)
	protected.GET("/profile", ctl.Auth.GetProfile)

	// Accounts
	protected.POST("/users/staff", responsable, ctl.Auth.CreateStaff)
	protected.GET("/clients", responsable, ctl.Auth.GetClients)
	protected.GET("/clients/:id", responsable, ctl.Auth.GetClientByID)

	// Etats
	etats := protected.Group("/etats")
	{
		etats.GET("", ctl.Catalog.GetEtats)
		etats.GET("/:id", ctl.Catalog.GetEtatByID)
		etats.POST("", responsable, ctl.Catalog.CreateEtat)
		etats.PUT("/:id", responsable, ctl.Catalog.UpdateEtat)
		etats.DELETE("/:id", responsable, ctl.Catalog.DeleteEtat)
	}

	// Articles
	articles := protected.Group("/articles")
	{
		articles.GET("", ctl.Catalog.GetArticles)
		articles.GET("/mine", client, ctl.Catalog.GetMyArticles)
		articles.GET("/:id", ctl.Catalog.GetArticleByID)
		articles.POST("", responsable, ctl.Catalog.CreateArticle)
		articles.PUT("/:id", responsable, ctl.Catalog.UpdateArticle)
		articles.DELETE("/:id", responsable, ctl.Catalog.DeleteArticle)
	}

	// Spare parts
	pieces := protected.Group("/pieces")
	{
		pieces.GET("", ctl.Catalog.GetPieces)
		pieces.GET("/article/:articleId", ctl.Catalog.GetPiecesByArticle)
		pieces.GET("/:id", ctl.Catalog.GetPieceByID)
		pieces.POST("", responsable, ctl.Catalog.CreatePiece)
		pieces.PUT("/:id", responsable, ctl.Catalog.UpdatePiece)
		pieces.DELETE("/:id", responsable, ctl.Catalog.DeletePiece)
	}

	// Technicians
	techniciens := protected.Group("/techniciens")
	{
		techniciens.GET("", responsable, ctl.Catalog.GetTechniciens)
		techniciens.GET("/:id", responsable, ctl.Catalog.GetTechnicienByID)
		techniciens.POST("", responsable, ctl.Catalog.CreateTechnicien)
		techniciens.PUT("/:id", responsable, ctl.Catalog.UpdateTechnicien)
		techniciens.DELETE("/:id", responsable, ctl.Catalog.DeleteTechnicien)
		techniciens.GET("/:id/interventions",
			middleware.RequireRoles(controllers.RoleResponsableSAV, controllers.RoleTechnicien),
			ctl.Intervention.GetTechnicienInterventions)
	}

	// Reclamations
	reclamations := protected.Group("/reclamations")
	{
		readers := middleware.RequireRoles(controllers.RoleClient, controllers.RoleResponsableSAV)
		reclamations.GET("", readers, ctl.Reclamation.GetReclamations)
		reclamations.GET("/:id", readers, ctl.Reclamation.GetReclamationByID)
		reclamations.POST("", client, ctl.Reclamation.CreateReclamation)
		reclamations.PUT("/:id", responsable, ctl.Reclamation.UpdateReclamation)
		reclamations.PATCH("/:id/etat", responsable, ctl.Reclamation.ChangeReclamationEtat)
		reclamations.DELETE("/:id", responsable, ctl.Reclamation.DeleteReclamation)
	}

	// Interventions
	interventions := protected.Group("/interventions")
	interventions.Use(responsable)
	{
		interventions.GET("", ctl.Intervention.GetInterventions)
		interventions.GET("/:id", ctl.Intervention.GetInterventionByID)
		interventions.POST("", ctl.Intervention.RecordIntervention)
		interventions.PUT("/:id", ctl.Intervention.UpdateIntervention)
		interventions.DELETE("/:id", ctl.Intervention.DeleteIntervention)
	}

	// Payments
	payments := protected.Group("/payments")
	{
		payments.POST("/order", client, ctl.Payment.GeneratePaymentOrder)
		payments.POST("/verify", client, ctl.Payment.VerifyPayment)
		payments.GET("", middleware.RequireRoles(controllers.RoleClient, controllers.RoleResponsableSAV), ctl.Payment.GetPaymentHistory)
	}

	protected.GET("/dashboard", responsable, ctl.Admin.AdminDashboard)
}
