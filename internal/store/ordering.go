package store

import (
	"gorm.io/gorm"

	"github.com/taskboard-dev/taskboard/internal/models"
)

// NextTaskOrder returns the order value for a task appended to a status
// column: one past the current maximum, 0 for an empty column. Callers that
// create a task should run this and the insert inside the same transaction.
func NextTaskOrder(db *gorm.DB, taskStatusID uint) (int, error) {
	return nextOrder(db.Model(&models.Task{}).Where("task_status_id = ?", taskStatusID))
}

// NextStatusOrder returns the order value for a status column appended to a
// project board.
func NextStatusOrder(db *gorm.DB, projectID uint) (int, error) {
	return nextOrder(db.Model(&models.TaskStatus{}).Where("project_id = ?", projectID))
}

func nextOrder(query *gorm.DB) (int, error) {
	var max int

	// Absent max counts as -1 so the first record in a scope gets order 0.
	if err := query.Select(`COALESCE(MAX("order"), -1)`).Scan(&max).Error; err != nil {
		return 0, err
	}

	return max + 1, nil
}
