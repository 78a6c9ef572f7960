package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/store"
	"github.com/taskboard-dev/taskboard/internal/utils"
)

type CreateTaskStatusRequest struct {
	Name  string `json:"name" binding:"required,max=255"`
	Color string `json:"color" binding:"required,hexcolor"`
}

type UpdateTaskStatusRequest struct {
	Name  *string `json:"name" binding:"omitempty,max=255"`
	Color *string `json:"color" binding:"omitempty,hexcolor"`
	Order *int    `json:"order" binding:"omitempty,min=0"`
}

type TaskStatusResponse struct {
	ID        uint   `json:"id"`
	ProjectID uint   `json:"project_id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Order     int    `json:"order"`
}

func CreateTaskStatus(ctx *gin.Context) {
	project, ok := requireProject(ctx)

	if !ok {
		return
	}

	var req CreateTaskStatusRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	status := models.TaskStatus{
		ProjectID: project.ID,
		Name:      req.Name,
		Color:     req.Color,
	}

	// New columns go to the end of the board; same transaction rule as task
	// creation.
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		order, err := store.NextStatusOrder(tx, project.ID)

		if err != nil {
			return err
		}

		status.Order = order

		return tx.Create(&status).Error
	})

	if err != nil {
		log.Printf("Failed to create task status in project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task status"})
		return
	}

	ctx.JSON(http.StatusCreated, toTaskStatusResponse(status))
}

func UpdateTaskStatus(ctx *gin.Context) {
	project, ok := requireProject(ctx)

	if !ok {
		return
	}

	status, ok := requireRouteStatus(ctx, project.ID)

	if !ok {
		return
	}

	var req UpdateTaskStatusRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	updates := make(map[string]interface{})

	if req.Name != nil {
		updates["name"] = *req.Name
	}

	if req.Color != nil {
		updates["color"] = *req.Color
	}

	if req.Order != nil {
		updates["order"] = *req.Order
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := db.DB.Model(status).Updates(updates).Error; err != nil {
		log.Printf("Failed to update task status %d: %v", status.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task status"})
		return
	}

	ctx.JSON(http.StatusOK, toTaskStatusResponse(*status))
}

func DeleteTaskStatus(ctx *gin.Context) {
	project, ok := requireProject(ctx)

	if !ok {
		return
	}

	status, ok := requireRouteStatus(ctx, project.ID)

	if !ok {
		return
	}

	count, err := store.CountStatusTasks(db.DB, status.ID)

	if err != nil {
		log.Printf("Failed to count tasks for status %d: %v", status.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	if count > 0 {
		ctx.JSON(http.StatusForbidden, fieldError("status",
			"Cannot delete a status that has tasks. Please move or delete the tasks first."))
		return
	}

	if err := db.DB.Unscoped().Delete(status).Error; err != nil {
		log.Printf("Failed to delete task status %d: %v", status.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task status"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// requireRouteStatus resolves the status column named in the route and checks
// it belongs to the route project.
func requireRouteStatus(ctx *gin.Context, projectID uint) (*models.TaskStatus, bool) {
	taskStatusID, err := utils.GetTaskStatusID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	return requireProjectStatus(ctx, projectID, taskStatusID)
}

func toTaskStatusResponse(status models.TaskStatus) TaskStatusResponse {
	return TaskStatusResponse{
		ID:        status.ID,
		ProjectID: status.ProjectID,
		Name:      status.Name,
		Color:     status.Color,
		Order:     status.Order,
	}
}
