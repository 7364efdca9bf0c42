package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fitgym/nutrition-app/internal/domain"
	"fitgym/nutrition-app/internal/service"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	shareBaseURL string,
	authService service.AuthService,
	catalogService service.CatalogService,
	planService service.PlanService,
	followService service.FollowService,
	contentService service.ContentService,
) {
	authHandler := NewAuthHandler(authService)
	catalogHandler := NewCatalogHandler(catalogService, planService, shareBaseURL)
	planHandler := NewPlanHandler(planService, contentService)
	followHandler := NewFollowHandler(followService)

	authMiddleware := AuthMiddleware(jwtSecret)
	optionalAuth := OptionalAuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	// Browsing surfaces. A token is honored when present; without one the
	// caller is scoped to the gym in the X-Gym-ID header and sees public
	// plans only.
	browse := apiV1.Group("")
	browse.Use(optionalAuth)
	{
		browse.GET("/plans", catalogHandler.ListPlans)
		browse.GET("/plans/categorized", catalogHandler.GetCategorizedPlans)
		browse.GET("/plans/:id", catalogHandler.GetPlan)
		browse.GET("/plans/:id/days", planHandler.ListMealDays)
		browse.GET("/plans/:id/qr", catalogHandler.GetPlanShareQR)
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			caller, _ := callerFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "gymId": caller.GymID.Hex(), "role": role})
		})
		protected.GET("/me/follows", followHandler.GetFollowHistory)

		// Personalized read surfaces
		protected.GET("/dashboard", catalogHandler.GetDashboard)
		protected.GET("/today", catalogHandler.GetToday)

		// Plan creation and creator writes
		protected.POST("/plans", planHandler.CreatePlan)
		protected.PUT("/plans/:id", planHandler.UpdatePlan)
		protected.DELETE("/plans/:id", planHandler.DeactivatePlan)
		protected.POST("/plans/:id/activate", planHandler.ActivatePlan)

		// Meal content (the service checks ownership)
		protected.PUT("/plans/:id/days/:day", planHandler.UpsertMealDay)
		protected.DELETE("/plans/:id/days/:day", planHandler.DeleteMealDay)

		// Cover images
		protected.POST("/plans/:id/cover/upload-url", planHandler.RequestCoverUploadURL)
		protected.POST("/plans/:id/cover/confirm", planHandler.ConfirmCoverUpload)

		// Creator analytics
		protected.GET("/plans/:id/analytics", planHandler.GetPlanAnalytics)

		// Follows
		protected.POST("/plans/:id/follow", followHandler.FollowPlan)
		protected.DELETE("/plans/:id/follow", followHandler.UnfollowPlan)

		// Live lifecycle is a staff surface.
		liveGroup := protected.Group("/plans/:id/live")
		liveGroup.Use(RoleMiddleware(domain.RoleCoach))
		{
			liveGroup.POST("/pause", planHandler.PauseLivePlan)
			liveGroup.POST("/resume", planHandler.ResumeLivePlan)
			liveGroup.POST("/finish", planHandler.FinishLivePlan)
			liveGroup.POST("/archive", planHandler.ArchiveLivePlan)
		}
	}
}
