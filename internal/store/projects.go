package store

import (
	"gorm.io/gorm"

	"github.com/taskboard-dev/taskboard/internal/models"
)

// ProjectRow is a project joined with its owner and team names for listings.
type ProjectRow struct {
	models.Project
	OwnerName string `json:"owner_name"`
	TeamName  string `json:"team_name"`
}

// ListProjects returns projects newest start date first, with owner and team
// names resolved.
func ListProjects(db *gorm.DB, page PageRequest) ([]ProjectRow, PageMeta, error) {
	page = page.normalize()

	var total int64

	if err := db.Model(&models.Project{}).Count(&total).Error; err != nil {
		return nil, PageMeta{}, err
	}

	var rows []ProjectRow

	err := page.scope(
		db.Model(&models.Project{}).
			Select("projects.*, users.name AS owner_name, teams.name AS team_name").
			Joins("JOIN users ON users.id = projects.owner_id").
			Joins("JOIN teams ON teams.id = projects.team_id").
			Order("projects.start_date DESC NULLS LAST").
			Order("projects.id DESC"),
	).Find(&rows).Error

	if err != nil {
		return nil, PageMeta{}, err
	}

	return rows, page.meta(total), nil
}

// ProjectBoard returns the project's status columns in board order, each with
// its tasks. Tasks with equal order tie-break by insertion id.
func ProjectBoard(db *gorm.DB, projectID uint) ([]models.TaskStatus, error) {
	var statuses []models.TaskStatus

	err := db.
		Where("project_id = ?", projectID).
		Order(`"order", id`).
		Preload("Tasks", func(tx *gorm.DB) *gorm.DB {
			return tx.Order(`"order", id`)
		}).
		Find(&statuses).Error

	if err != nil {
		return nil, err
	}

	return statuses, nil
}

// CountStatusTasks returns how many tasks sit in a status column.
func CountStatusTasks(db *gorm.DB, taskStatusID uint) (int64, error) {
	var count int64

	err := db.Model(&models.Task{}).
		Where("task_status_id = ?", taskStatusID).
		Count(&count).Error

	if err != nil {
		return 0, err
	}

	return count, nil
}

// DeleteProject hard-deletes a project with its tasks and status columns in
// one transaction. The FK tags declare ON DELETE CASCADE too, but doing it
// explicitly keeps behavior identical across drivers.
func DeleteProject(db *gorm.DB, projectID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("project_id = ?", projectID).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		if err := tx.Unscoped().Where("project_id = ?", projectID).Delete(&models.TaskStatus{}).Error; err != nil {
			return err
		}

		return tx.Unscoped().Delete(&models.Project{}, projectID).Error
	})
}

// DeleteTeam hard-deletes a team, its membership rows, and its projects.
func DeleteTeam(db *gorm.DB, teamID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := DetachTeamMembers(tx, teamID); err != nil {
			return err
		}

		var projectIDs []uint

		err := tx.Model(&models.Project{}).
			Where("team_id = ?", teamID).
			Pluck("id", &projectIDs).Error

		if err != nil {
			return err
		}

		for _, projectID := range projectIDs {
			if err := DeleteProject(tx, projectID); err != nil {
				return err
			}
		}

		return tx.Unscoped().Delete(&models.Team{}, teamID).Error
	})
}
