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
	"github.com/taskboard-dev/taskboard/internal/store"
	"github.com/taskboard-dev/taskboard/internal/utils"
)

type CreateTaskRequest struct {
	TaskStatusID uint   `json:"task_status_id" binding:"required"`
	Title        string `json:"title" binding:"required,max=255"`
	Description  string `json:"description"`
	Priority     string `json:"priority" binding:"omitempty,oneof=low medium high"`
	AssignedTo   *uint  `json:"assigned_to"`
	DueDate      string `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=255"`
	Description *string `json:"description"`
	Priority    *string `json:"priority" binding:"omitempty,oneof=low medium high"`
	AssignedTo  *uint   `json:"assigned_to"`
	DueDate     *string `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	Completed   *bool   `json:"completed"`
}

type MoveTaskRequest struct {
	TaskStatusID uint `json:"task_status_id" binding:"required"`
	Order        *int `json:"order" binding:"required,min=0"`
}

type TaskResponse struct {
	ID           uint   `json:"id"`
	ProjectID    uint   `json:"project_id"`
	TaskStatusID uint   `json:"task_status_id"`
	AssignedTo   *uint  `json:"assigned_to"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Priority     string `json:"priority"`
	Order        int    `json:"order"`
	DueDate      string `json:"due_date"`
	CompletedAt  string `json:"completed_at"`
}

type StatusColumnResponse struct {
	ID    uint           `json:"id"`
	Name  string         `json:"name"`
	Color string         `json:"color"`
	Order int            `json:"order"`
	Tasks []TaskResponse `json:"tasks"`
}

// ListProjectTasks returns the board: status columns in order, each carrying
// its tasks in order.
func ListProjectTasks(ctx *gin.Context) {
	project, ok := requireProject(ctx)

	if !ok {
		return
	}

	statuses, err := store.ProjectBoard(db.DB, project.ID)

	if err != nil {
		log.Printf("Failed to load board for project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	columns := make([]StatusColumnResponse, 0, len(statuses))

	for _, status := range statuses {
		tasks := make([]TaskResponse, 0, len(status.Tasks))

		for _, task := range status.Tasks {
			tasks = append(tasks, toTaskResponse(task))
		}

		columns = append(columns, StatusColumnResponse{
			ID:    status.ID,
			Name:  status.Name,
			Color: status.Color,
			Order: status.Order,
			Tasks: tasks,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"project": toProjectResponse(*project),
		"statuses": columns,
	})
}

func CreateTask(ctx *gin.Context) {
	project, ok := requireProject(ctx)

	if !ok {
		return
	}

	var req CreateTaskRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	if _, ok := requireProjectStatus(ctx, project.ID, req.TaskStatusID); !ok {
		return
	}

	if req.AssignedTo != nil {
		var assignee models.User

		if err := db.DB.First(&assignee, *req.AssignedTo).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(http.StatusBadRequest, fieldError("assigned_to", "The selected user does not exist"))
			} else {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
			}
			return
		}
	}

	priority := req.Priority

	if priority == "" {
		priority = models.TaskPriorityMedium
	}

	task := models.Task{
		ProjectID:    project.ID,
		TaskStatusID: req.TaskStatusID,
		AssignedTo:   req.AssignedTo,
		Title:        req.Title,
		Description:  req.Description,
		Priority:     priority,
		DueDate:      parseDate(req.DueDate),
	}

	// Order assignment and insert share a transaction so concurrent creates
	// in the same column cannot both read the same max.
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		order, err := store.NextTaskOrder(tx, req.TaskStatusID)

		if err != nil {
			return err
		}

		task.Order = order

		return tx.Create(&task).Error
	})

	if err != nil {
		log.Printf("Failed to create task in project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	ctx.JSON(http.StatusCreated, toTaskResponse(task))
}

func UpdateTask(ctx *gin.Context) {
	project, ok := requireProject(ctx)

	if !ok {
		return
	}

	task, ok := requireProjectTask(ctx, project.ID)

	if !ok {
		return
	}

	var req UpdateTaskRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	updates := make(map[string]interface{})

	if req.Title != nil {
		updates["title"] = *req.Title
	}

	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}

	if req.AssignedTo != nil {
		// Zero clears the assignee.
		if *req.AssignedTo == 0 {
			updates["assigned_to"] = nil
		} else {
			var assignee models.User

			if err := db.DB.First(&assignee, *req.AssignedTo).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusBadRequest, fieldError("assigned_to", "The selected user does not exist"))
				} else {
					ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
				}
				return
			}

			updates["assigned_to"] = *req.AssignedTo
		}
	}

	if req.DueDate != nil {
		updates["due_date"] = parseDate(*req.DueDate)
	}

	if req.Completed != nil {
		if *req.Completed {
			updates["completed_at"] = time.Now()
		} else {
			updates["completed_at"] = nil
		}
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := db.DB.Model(task).Updates(updates).Error; err != nil {
		log.Printf("Failed to update task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	ctx.JSON(http.StatusOK, toTaskResponse(*task))
}

// MoveTask sets the task's column and order in one update. Sibling tasks are
// never renumbered; the client supplies a consistent order.
func MoveTask(ctx *gin.Context) {
	project, ok := requireProject(ctx)

	if !ok {
		return
	}

	task, ok := requireProjectTask(ctx, project.ID)

	if !ok {
		return
	}

	var req MoveTaskRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	if _, ok := requireProjectStatus(ctx, project.ID, req.TaskStatusID); !ok {
		return
	}

	updates := map[string]interface{}{
		"task_status_id": req.TaskStatusID,
		"order":          *req.Order,
	}

	if err := db.DB.Model(task).Updates(updates).Error; err != nil {
		log.Printf("Failed to move task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to move task"})
		return
	}

	ctx.JSON(http.StatusOK, toTaskResponse(*task))
}

func DeleteTask(ctx *gin.Context) {
	project, ok := requireProject(ctx)

	if !ok {
		return
	}

	task, ok := requireProjectTask(ctx, project.ID)

	if !ok {
		return
	}

	if err := db.DB.Unscoped().Delete(task).Error; err != nil {
		log.Printf("Failed to delete task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// requireProject resolves the route project or writes the error response.
func requireProject(ctx *gin.Context) (*models.Project, bool) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	var project models.Project

	if err := db.DB.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return nil, false
	}

	return &project, true
}

// requireProjectTask resolves the route task and enforces that it belongs to
// the route project; a task from another project is a forbidden reference,
// not a missing one.
func requireProjectTask(ctx *gin.Context, projectID uint) (*models.Task, bool) {
	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	var task models.Task

	if err := db.DB.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return nil, false
	}

	if task.ProjectID != projectID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Task does not belong to this project"})
		return nil, false
	}

	return &task, true
}

// requireProjectStatus enforces that a referenced status column belongs to
// the route project.
func requireProjectStatus(ctx *gin.Context, projectID, taskStatusID uint) (*models.TaskStatus, bool) {
	var status models.TaskStatus

	if err := db.DB.First(&status, taskStatusID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task status not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task status"})
		}
		return nil, false
	}

	if status.ProjectID != projectID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Task status does not belong to this project"})
		return nil, false
	}

	return &status, true
}

func toTaskResponse(task models.Task) TaskResponse {
	completedAt := ""

	if task.CompletedAt != nil {
		completedAt = task.CompletedAt.Format(time.RFC3339)
	}

	return TaskResponse{
		ID:           task.ID,
		ProjectID:    task.ProjectID,
		TaskStatusID: task.TaskStatusID,
		AssignedTo:   task.AssignedTo,
		Title:        task.Title,
		Description:  task.Description,
		Priority:     task.Priority,
		Order:        task.Order,
		DueDate:      formatDate(task.DueDate),
		CompletedAt:  completedAt,
	}
}
