package services

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/store"
)

// Event is one real-time notification addressed to a single user. Channel is
// the private per-user channel name a connected client subscribes to.
type Event struct {
	ID      string          `json:"id"`
	Channel string          `json:"channel"`
	UserID  uint            `json:"user_id"`
	Title   string          `json:"title"`
	Message string          `json:"message"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Dispatcher delivers events to connected clients. Delivery is best-effort:
// the notification row is already persisted by the time Dispatch runs.
type Dispatcher interface {
	Dispatch(event Event)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(event Event)

func (f DispatcherFunc) Dispatch(event Event) {
	f(event)
}

// UserChannel returns the private channel name for a user.
func UserChannel(userID uint) string {
	return fmt.Sprintf("user.%d", userID)
}

// NotifyTeam fans a notification out to every member of a team in two phases:
// first persist one Notification row per member, then dispatch one event per
// member whose row was written. A failed row insert is logged and skipped, so
// no event is ever dispatched without its persisted row. Returns
// gorm.ErrRecordNotFound when the team does not exist, otherwise the first
// persistence error after the sweep completes.
func NotifyTeam(db *gorm.DB, dispatcher Dispatcher, teamID uint, title, message, severity string, data map[string]interface{}) error {
	var team models.Team

	if err := db.First(&team, teamID).Error; err != nil {
		return err
	}

	members, err := store.TeamMembers(db, teamID)

	if err != nil {
		return err
	}

	var payload []byte

	if data != nil {
		payload, err = json.Marshal(data)

		if err != nil {
			return err
		}
	}

	var firstErr error
	notified := make([]models.User, 0, len(members))

	for _, member := range members {
		notification := models.Notification{
			UserID:  member.ID,
			Title:   title,
			Message: message,
			Type:    severity,
			Data:    datatypes.JSON(payload),
		}

		if err := db.Create(&notification).Error; err != nil {
			log.Printf("Failed to persist notification for user %d: %v", member.ID, err)

			if firstErr == nil {
				firstErr = err
			}

			continue
		}

		notified = append(notified, member)
	}

	if dispatcher != nil {
		for _, member := range notified {
			dispatcher.Dispatch(Event{
				ID:      uuid.NewString(),
				Channel: UserChannel(member.ID),
				UserID:  member.ID,
				Title:   title,
				Message: message,
				Type:    severity,
				Data:    payload,
			})
		}
	}

	return firstErr
}
