package handlers

import (
	"encoding/json"
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

type NotificationResponse struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	Read      bool   `json:"read"`
	Data      any    `json:"data,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ListNotifications returns the authenticated user's notifications, newest
// first.
func ListNotifications(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	notifications, meta, err := store.UserNotifications(db.DB, userID, utils.GetPage(ctx))

	if err != nil {
		log.Printf("Failed to list notifications for user %d: %v", userID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve notifications"})
		return
	}

	response := make([]NotificationResponse, 0, len(notifications))

	for _, notification := range notifications {
		response = append(response, toNotificationResponse(notification))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"notifications": response,
		"meta":          meta,
	})
}

// MarkNotificationRead flags one of the user's notifications as read.
func MarkNotificationRead(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	notificationID, err := utils.GetNotificationID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := store.MarkNotificationRead(db.DB, userID, notificationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		} else {
			log.Printf("Failed to mark notification %d read: %v", notificationID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

func toNotificationResponse(notification models.Notification) NotificationResponse {
	response := NotificationResponse{
		ID:        notification.ID,
		Title:     notification.Title,
		Message:   notification.Message,
		Type:      notification.Type,
		Read:      notification.Read,
		CreatedAt: notification.CreatedAt.Format(time.RFC3339),
	}

	if len(notification.Data) > 0 {
		response.Data = json.RawMessage(notification.Data)
	}

	return response
}
