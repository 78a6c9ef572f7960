package store

import (
	"gorm.io/gorm"

	"github.com/taskboard-dev/taskboard/internal/models"
)

// UserNotifications returns the user's notifications newest first.
func UserNotifications(db *gorm.DB, userID uint, page PageRequest) ([]models.Notification, PageMeta, error) {
	page = page.normalize()

	query := db.Model(&models.Notification{}).Where("user_id = ?", userID)

	var total int64

	if err := query.Count(&total).Error; err != nil {
		return nil, PageMeta{}, err
	}

	var notifications []models.Notification

	if err := page.scope(query.Order("created_at DESC, id DESC")).Find(&notifications).Error; err != nil {
		return nil, PageMeta{}, err
	}

	return notifications, page.meta(total), nil
}

// MarkNotificationRead flags a single notification of the user as read.
func MarkNotificationRead(db *gorm.DB, userID, notificationID uint) error {
	result := db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
