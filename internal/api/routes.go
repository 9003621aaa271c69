package api

import (
	"net/http"

	"github.com/ParkerJahn/sweatsheet-web/internal/domain"
	"github.com/ParkerJahn/sweatsheet-web/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	profileService service.ProfileService,
	catalogService service.CatalogService,
	sheetService service.SweatSheetService,
	messagingService service.MessagingService,
) {
	authHandler := NewAuthHandler(authService)
	profileHandler := NewProfileHandler(profileService)
	catalogHandler := NewCatalogHandler(catalogService)
	sheetHandler := NewSweatSheetHandler(sheetService)
	messagingHandler := NewMessagingHandler(messagingService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/token", authHandler.Token)
			authGroup.POST("/token/refresh", authHandler.RefreshToken)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			p, err := getPrincipal(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get principal from token")
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": p.ID.Hex(), "role": p.Role})
		})

		// --- Profile / Calendar / Users ---
		protected.GET("/profile", profileHandler.GetProfile)
		protected.PATCH("/profile", profileHandler.UpdateProfile)
		protected.GET("/calendar", profileHandler.GetCalendar)
		protected.PUT("/calendar", profileHandler.PutCalendar)
		protected.GET("/users", profileHandler.ListUsers)
		protected.GET("/users/athletes", profileHandler.ListAthletes)

		// --- Notes ---
		noteGroup := protected.Group("/notes")
		{
			noteGroup.GET("", profileHandler.ListNotes)
			noteGroup.POST("", profileHandler.CreateNote)
			noteGroup.DELETE("/:id", profileHandler.DeleteNote)
		}

		// --- Workout Catalog (read-only) ---
		protected.GET("/workout-categories", catalogHandler.ListCategories)
		protected.GET("/workout-exercises", catalogHandler.ListExercises)

		// --- SweatSheets ---
		sheetGroup := protected.Group("/sweatsheets")
		{
			// Creation and assignment are coach-only; the role gate here is
			// a fast path, the service re-checks ownership.
			sheetGroup.POST("", RoleMiddleware(domain.RolePro, domain.RoleTeamMember), sheetHandler.CreateSheet)
			sheetGroup.GET("", sheetHandler.ListSheets)
			sheetGroup.GET("/:id", sheetHandler.GetSheet)
			sheetGroup.PUT("/:id", sheetHandler.UpdateSheet)
			sheetGroup.DELETE("/:id", sheetHandler.DeleteSheet)
			sheetGroup.POST("/:id/assign", RoleMiddleware(domain.RolePro, domain.RoleTeamMember), sheetHandler.AssignSheet)
			sheetGroup.GET("/:id/phases", sheetHandler.ListPhases)
			sheetGroup.POST("/:id/phases", sheetHandler.CreatePhase)
		}

		phaseGroup := protected.Group("/phases")
		{
			phaseGroup.GET("/:id/sections", sheetHandler.ListSections)
			phaseGroup.POST("/:id/sections", sheetHandler.CreateSection)
			phaseGroup.POST("/:id/complete", sheetHandler.CompletePhase)
		}

		sectionGroup := protected.Group("/sections")
		{
			sectionGroup.GET("/:id/exercises", sheetHandler.ListExercises)
			sectionGroup.POST("/:id/exercises", sheetHandler.CreateExercise)
		}

		protected.POST("/exercises/:id/complete", sheetHandler.CompleteExercise)

		// --- Messaging ---
		convGroup := protected.Group("/conversations")
		{
			convGroup.GET("", messagingHandler.ListConversations)
			convGroup.POST("", messagingHandler.CreateConversation)
			convGroup.POST("/direct", messagingHandler.GetOrCreateDirect)
			convGroup.GET("/:id", messagingHandler.GetConversation)
			convGroup.PUT("/:id", messagingHandler.UpdateConversation)
			convGroup.DELETE("/:id", messagingHandler.DeleteConversation)
			convGroup.GET("/:id/messages", messagingHandler.ListMessages)
			convGroup.POST("/:id/messages", messagingHandler.PostMessage)
			convGroup.PUT("/:id/messages/:messageId", messagingHandler.EditMessage)
			convGroup.DELETE("/:id/messages/:messageId", messagingHandler.DeleteMessage)
			convGroup.POST("/:id/mark-read", messagingHandler.MarkRead)
			convGroup.POST("/:id/attachments", messagingHandler.RequestAttachmentURL)
		}
	}
}
