package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/services"
	"github.com/taskboard-dev/taskboard/internal/store"
	"github.com/taskboard-dev/taskboard/internal/utils"
)

type ProjectRequest struct {
	TeamID      uint   `json:"team_id" binding:"required"`
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
	Status      string `json:"status" binding:"omitempty,oneof=planning ongoing on_hold completed cancelled"`
	StartDate   string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	DueDate     string `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
}

type ProjectResponse struct {
	ID          uint   `json:"id"`
	TeamID      uint   `json:"team_id"`
	OwnerID     uint   `json:"owner_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	StartDate   string `json:"start_date"`
	DueDate     string `json:"due_date"`
	OwnerName   string `json:"owner_name,omitempty"`
	TeamName    string `json:"team_name,omitempty"`
}

func ListProjects(ctx *gin.Context) {
	rows, meta, err := store.ListProjects(db.DB, utils.GetPage(ctx))

	if err != nil {
		log.Printf("Failed to list projects: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	projects := make([]ProjectResponse, 0, len(rows))

	for _, row := range rows {
		response := toProjectResponse(row.Project)
		response.OwnerName = row.OwnerName
		response.TeamName = row.TeamName
		projects = append(projects, response)
	}

	var teams []models.Team

	if err := db.DB.Select("id", "name").Order("name").Find(&teams).Error; err != nil {
		log.Printf("Failed to list teams: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve teams"})
		return
	}

	teamOptions := make([]gin.H, 0, len(teams))

	for _, team := range teams {
		teamOptions = append(teamOptions, gin.H{"id": team.ID, "name": team.Name})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"projects": projects,
		"meta":     meta,
		"teams":    teamOptions,
	})
}

func CreateProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req ProjectRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	startDate, dueDate, ok := projectDates(ctx, req)

	if !ok {
		return
	}

	var team models.Team

	if err := db.DB.First(&team, req.TeamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, fieldError("team_id", "The selected team does not exist"))
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
		}
		return
	}

	status := req.Status

	if status == "" {
		status = models.ProjectStatusPlanning
	}

	project := models.Project{
		TeamID:      req.TeamID,
		OwnerID:     userID,
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
		StartDate:   startDate,
		DueDate:     dueDate,
	}

	if err := db.DB.Create(&project).Error; err != nil {
		log.Printf("Failed to create project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	notifyProjectTeam(project.TeamID, "New Project Assigned",
		"You have been assigned to a new project: "+project.Name,
		models.NotificationTypeSuccess, project)

	ctx.JSON(http.StatusCreated, toProjectResponse(project))
}

func UpdateProject(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req ProjectRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	startDate, dueDate, ok := projectDates(ctx, req)

	if !ok {
		return
	}

	var project models.Project

	if err := db.DB.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	var team models.Team

	if err := db.DB.First(&team, req.TeamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, fieldError("team_id", "The selected team does not exist"))
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
		}
		return
	}

	oldTeamID := project.TeamID
	teamChanged := oldTeamID != req.TeamID

	project.TeamID = req.TeamID
	project.Name = req.Name
	project.Description = req.Description

	if req.Status != "" {
		project.Status = req.Status
	}

	if startDate != nil {
		project.StartDate = startDate
	}

	if dueDate != nil {
		project.DueDate = dueDate
	}

	if err := db.DB.Save(&project).Error; err != nil {
		log.Printf("Failed to update project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	if teamChanged {
		notifyProjectTeam(oldTeamID, "Project Removed",
			"Your team has been removed from project: "+project.Name,
			models.NotificationTypeWarning, project)

		notifyProjectTeam(project.TeamID, "New Project Assigned",
			"Your team has been assigned to project: "+project.Name,
			models.NotificationTypeSuccess, project)
	} else {
		notifyProjectTeam(project.TeamID, "Project Updated",
			`Project "`+project.Name+`" has been updated.`,
			models.NotificationTypeInfo, project)
	}

	ctx.JSON(http.StatusOK, toProjectResponse(project))
}

func DeleteProject(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var project models.Project

	if err := db.DB.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	if err := store.DeleteProject(db.DB, project.ID); err != nil {
		log.Printf("Failed to delete project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// notifyProjectTeam runs the team fan-out for a project change. Fan-out
// failures are logged, never surfaced: the project mutation is already
// committed.
func notifyProjectTeam(teamID uint, title, message, severity string, project models.Project) {
	data := map[string]interface{}{
		"project_id":   project.ID,
		"project_name": project.Name,
	}

	err := services.NotifyTeam(db.DB, services.DispatcherFunc(DispatchEvent), teamID, title, message, severity, data)

	if err != nil {
		log.Printf("Fan-out for team %d on project %d failed: %v", teamID, project.ID, err)
	}
}

func projectDates(ctx *gin.Context, req ProjectRequest) (*time.Time, *time.Time, bool) {
	startDate := parseDate(req.StartDate)
	dueDate := parseDate(req.DueDate)

	if startDate != nil && dueDate != nil && dueDate.Before(*startDate) {
		ctx.JSON(http.StatusBadRequest, fieldError("due_date", "Due date must be on or after the start date"))
		return nil, nil, false
	}

	return startDate, dueDate, true
}

func toProjectResponse(project models.Project) ProjectResponse {
	return ProjectResponse{
		ID:          project.ID,
		TeamID:      project.TeamID,
		OwnerID:     project.OwnerID,
		Name:        project.Name,
		Description: project.Description,
		Status:      project.Status,
		StartDate:   formatDate(project.StartDate),
		DueDate:     formatDate(project.DueDate),
	}
}
