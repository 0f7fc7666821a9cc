package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"udec/workout-tracker/internal/service"
)

// SetupRoutes wires every handler into the router. The acting user is
// always taken from the JWT; admin routes additionally require the admin
// claim.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	catalogService service.CatalogService,
	templateService service.TemplateService,
	adminService service.AdminService,
	sessionService service.SessionService,
) {
	authHandler := NewAuthHandler(authService)
	userHandler := NewUserHandler(authService)
	exerciseHandler := NewExerciseHandler(catalogService)
	templateHandler := NewTemplateHandler(templateService)
	adminHandler := NewAdminHandler(adminService)
	workoutHandler := NewWorkoutHandler(sessionService)

	authMiddleware := AuthMiddleware(jwtSecret)
	adminMiddleware := AdminMiddleware()

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

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Profile ---
		protected.GET("/users/me", userHandler.GetMe)
		protected.PUT("/users/me", userHandler.UpdateMe)

		// --- Exercise Catalog ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.GET("", exerciseHandler.ListExercises)
			exerciseGroup.GET("/:id", exerciseHandler.GetExercise)
			exerciseGroup.GET("/:id/video", exerciseHandler.GetVideoDownloadURL)

			exerciseGroup.POST("", adminMiddleware, exerciseHandler.CreateExercise)
			exerciseGroup.PUT("/:id", adminMiddleware, exerciseHandler.UpdateExercise)
			exerciseGroup.DELETE("/:id", adminMiddleware, exerciseHandler.DeleteExercise)
			exerciseGroup.POST("/:id/video-upload", adminMiddleware, exerciseHandler.RequestVideoUpload)
		}

		// --- Templates (user-facing) ---
		templateGroup := protected.Group("/templates")
		{
			templateGroup.GET("", templateHandler.ListTemplates)
			templateGroup.GET("/:id", templateHandler.GetTemplate)
		}

		// --- Session Engine ---
		workoutGroup := protected.Group("/workouts")
		{
			workoutGroup.POST("", workoutHandler.StartWorkout)
			workoutGroup.GET("/active", workoutHandler.GetActiveWorkout)
			workoutGroup.GET("/history", workoutHandler.History)
			workoutGroup.GET("/:id", workoutHandler.GetWorkout)
			workoutGroup.PUT("/:id/complete", workoutHandler.CompleteWorkout)
			workoutGroup.DELETE("/:id", workoutHandler.CancelWorkout)
			workoutGroup.PUT("/:id/notes", workoutHandler.UpdateWorkoutNotes)

			workoutGroup.POST("/:id/exercises", workoutHandler.AddExercise)
			workoutGroup.DELETE("/:id/exercises/:weId", workoutHandler.RemoveExercise)
			workoutGroup.PUT("/:id/exercises/:weId/notes", workoutHandler.UpdateExerciseNotes)

			workoutGroup.POST("/:id/exercises/:weId/sets", workoutHandler.AddSet)
			workoutGroup.PUT("/:id/exercises/:weId/sets/:setId", workoutHandler.UpdateSet)
			workoutGroup.PUT("/:id/exercises/:weId/sets/:setId/complete", workoutHandler.CompleteSet)
			workoutGroup.DELETE("/:id/exercises/:weId/sets/:setId", workoutHandler.DeleteSet)
		}

		// --- Admin ---
		adminGroup := protected.Group("/admin")
		adminGroup.Use(adminMiddleware)
		{
			adminGroup.GET("/users", adminHandler.ListUsers)
			adminGroup.POST("/users", adminHandler.CreateUser)
			adminGroup.PUT("/users/:id", adminHandler.UpdateUser)
			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)

			adminGroup.GET("/templates", templateHandler.ListAllTemplates)
			adminGroup.POST("/templates", templateHandler.CreateTemplate)
			adminGroup.PUT("/templates/:id", templateHandler.UpdateTemplate)
			adminGroup.DELETE("/templates/:id", templateHandler.DeleteTemplate)
			adminGroup.POST("/templates/:id/exercises", templateHandler.AddTemplateExercise)
			adminGroup.DELETE("/templates/:id/exercises/:teId", templateHandler.RemoveTemplateExercise)
		}
	}
}
