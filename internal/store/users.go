package store

import (
	"gorm.io/gorm"

	"github.com/taskboard-dev/taskboard/internal/models"
)

// ListUsers returns users ordered by name with their roles and direct
// permissions attached.
func ListUsers(db *gorm.DB, page PageRequest) ([]models.User, PageMeta, error) {
	page = page.normalize()

	var total int64

	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, PageMeta{}, err
	}

	var users []models.User

	err := page.scope(
		db.Model(&models.User{}).
			Preload("Roles").
			Preload("Permissions").
			Order("name"),
	).Find(&users).Error

	if err != nil {
		return nil, PageMeta{}, err
	}

	return users, page.meta(total), nil
}

// DeleteUser hard-deletes a user together with their membership rows,
// notifications, and role/permission assignments.
func DeleteUser(db *gorm.DB, userID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var user models.User

		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}

		if err := DetachUserTeams(tx, userID); err != nil {
			return err
		}

		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&user).Association("Roles").Clear(); err != nil {
			return err
		}

		if err := tx.Model(&user).Association("Permissions").Clear(); err != nil {
			return err
		}

		return tx.Unscoped().Delete(&user).Error
	})
}
