package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/internal/handlers"
	"github.com/taskboard-dev/taskboard/internal/middleware"
	"github.com/taskboard-dev/taskboard/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocket)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register)
			auth.POST("/login", handlers.Login)
			auth.POST("/logout", handlers.Logout)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		teams := api.Group("/teams", middleware.AuthMiddleware())
		{
			teams.GET("", handlers.ListTeams)
			teams.GET("/:team_id/users", handlers.GetTeamUsers)
			teams.POST("", middleware.RequirePermission("create team"), handlers.CreateTeam)
			teams.PUT("/:team_id", middleware.RequirePermission("update team"), handlers.UpdateTeam)
			teams.DELETE("/:team_id", middleware.RequirePermission("delete team"), handlers.DeleteTeam)
			teams.POST("/assign-users", middleware.RequirePermission("assign users"), handlers.AssignUsers)
		}

		users := api.Group("/users", middleware.AuthMiddleware())
		{
			users.GET("", handlers.ListUsers)
			users.POST("", middleware.RequirePermission("create user"), handlers.CreateUser)
			users.PUT("/:user_id", middleware.RequirePermission("update user"), handlers.UpdateUser)
			users.PUT("/:user_id/change-password", middleware.RequirePermission("change password"), handlers.ChangePassword)
			users.DELETE("/:user_id", middleware.RequirePermission("delete user"), handlers.DeleteUser)
			users.GET("/:user_id/permissions", handlers.GetUserPermissions)
			users.POST("/:user_id/assign-permissions", middleware.RequirePermission("assign permissions"), handlers.AssignPermissions)
			users.POST("/:user_id/assign-roles", middleware.RequirePermission("assign permissions"), handlers.AssignRoles)
		}

		notifications := api.Group("/notifications", middleware.AuthMiddleware())
		{
			notifications.GET("", handlers.ListNotifications)
			notifications.PUT("/:notification_id/read", handlers.MarkNotificationRead)
		}

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.GET("", handlers.ListProjects)
			projects.POST("", middleware.RequirePermission("create project"), handlers.CreateProject)
			projects.PUT("/:project_id", middleware.RequirePermission("update project"), handlers.UpdateProject)
			projects.DELETE("/:project_id", middleware.RequirePermission("delete project"), handlers.DeleteProject)

			// Status columns
			projects.POST("/:project_id/task-statuses", middleware.RequirePermission("create project"), handlers.CreateTaskStatus)
			projects.PUT("/:project_id/task-statuses/:task_status_id", middleware.RequirePermission("update project"), handlers.UpdateTaskStatus)
			projects.DELETE("/:project_id/task-statuses/:task_status_id", middleware.RequirePermission("delete project"), handlers.DeleteTaskStatus)

			// Tasks
			projects.GET("/:project_id/tasks", handlers.ListProjectTasks)
			projects.POST("/:project_id/tasks", middleware.RequirePermission("create project"), handlers.CreateTask)
			projects.PUT("/:project_id/tasks/:task_id", middleware.RequirePermission("update project"), handlers.UpdateTask)
			projects.PUT("/:project_id/tasks/:task_id/status", handlers.MoveTask)
			projects.DELETE("/:project_id/tasks/:task_id", middleware.RequirePermission("delete project"), handlers.DeleteTask)
		}
	}

	return r
}
