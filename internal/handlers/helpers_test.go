package handlers

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/middleware"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/types"
)

// setupHandlerTest points the package-global connection at a fresh in-memory
// database for the duration of the test.
func setupHandlerTest(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.Team{},
		&models.TeamUser{},
		&models.Project{},
		&models.TaskStatus{},
		&models.Task{},
		&models.Notification{},
	))

	db.DB = conn
	t.Cleanup(func() { db.DB = nil })

	return conn
}

// newTestRouter registers the handlers under their real routes, with the
// session middleware replaced by a stub that injects the given actor.
func newTestRouter(actor middleware.AuthenticatedUser) *gin.Engine {
	r := gin.New()
	r.Use(func(ctx *gin.Context) {
		ctx.Set(types.ContextUserKey, actor)
		ctx.Next()
	})

	projects := r.Group("/api/projects")
	projects.GET("", ListProjects)
	projects.POST("", CreateProject)
	projects.PUT("/:project_id", UpdateProject)
	projects.DELETE("/:project_id", DeleteProject)
	projects.POST("/:project_id/task-statuses", CreateTaskStatus)
	projects.PUT("/:project_id/task-statuses/:task_status_id", UpdateTaskStatus)
	projects.DELETE("/:project_id/task-statuses/:task_status_id", DeleteTaskStatus)
	projects.GET("/:project_id/tasks", ListProjectTasks)
	projects.POST("/:project_id/tasks", CreateTask)
	projects.PUT("/:project_id/tasks/:task_id", UpdateTask)
	projects.PUT("/:project_id/tasks/:task_id/status", MoveTask)
	projects.DELETE("/:project_id/tasks/:task_id", DeleteTask)

	teams := r.Group("/api/teams")
	teams.GET("", ListTeams)
	teams.GET("/:team_id/users", GetTeamUsers)
	teams.POST("", CreateTeam)
	teams.PUT("/:team_id", UpdateTeam)
	teams.POST("/assign-users", AssignUsers)

	users := r.Group("/api/users")
	users.GET("", ListUsers)
	users.POST("", CreateUser)
	users.PUT("/:user_id", UpdateUser)
	users.PUT("/:user_id/change-password", ChangePassword)
	users.DELETE("/:user_id", DeleteUser)
	users.GET("/:user_id/permissions", GetUserPermissions)
	users.POST("/:user_id/assign-permissions", AssignPermissions)
	users.POST("/:user_id/assign-roles", AssignRoles)

	notifications := r.Group("/api/notifications")
	notifications.GET("", ListNotifications)
	notifications.PUT("/:notification_id/read", MarkNotificationRead)

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader

	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func seedUser(t *testing.T, conn *gorm.DB, name, email string) models.User {
	t.Helper()

	user := models.User{Name: name, Email: email, PasswordHash: "x", IsActive: true}
	require.NoError(t, conn.Create(&user).Error)

	return user
}

func seedTeam(t *testing.T, conn *gorm.DB, name string, creatorID uint, memberIDs ...uint) models.Team {
	t.Helper()

	team := models.Team{Name: name, CreatedBy: creatorID, UpdatedBy: creatorID}
	require.NoError(t, conn.Create(&team).Error)

	for _, memberID := range memberIDs {
		require.NoError(t, conn.Create(&models.TeamUser{TeamID: team.ID, UserID: memberID}).Error)
	}

	return team
}

func seedProject(t *testing.T, conn *gorm.DB, teamID, ownerID uint, name string) models.Project {
	t.Helper()

	project := models.Project{
		TeamID:  teamID,
		OwnerID: ownerID,
		Name:    name,
		Status:  models.ProjectStatusPlanning,
	}
	require.NoError(t, conn.Create(&project).Error)

	return project
}

func seedStatus(t *testing.T, conn *gorm.DB, projectID uint, name string, order int) models.TaskStatus {
	t.Helper()

	status := models.TaskStatus{
		ProjectID: projectID,
		Name:      name,
		Color:     models.DefaultStatusColor,
		Order:     order,
	}
	require.NoError(t, conn.Create(&status).Error)

	return status
}

func seedTask(t *testing.T, conn *gorm.DB, projectID, statusID uint, title string, order int) models.Task {
	t.Helper()

	task := models.Task{
		ProjectID:    projectID,
		TaskStatusID: statusID,
		Title:        title,
		Priority:     models.TaskPriorityMedium,
		Order:        order,
	}
	require.NoError(t, conn.Create(&task).Error)

	return task
}

func actorFor(user models.User) middleware.AuthenticatedUser {
	return middleware.AuthenticatedUser{ID: user.ID, Name: user.Name, Email: user.Email}
}
