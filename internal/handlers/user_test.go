package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/store"
)

func TestCreateUserDuplicateEmail(t *testing.T) {
	conn := setupHandlerTest(t)

	actor := seedUser(t, conn, "Actor", "actor@example.com")
	seedUser(t, conn, "Existing", "existing@example.com")

	r := newTestRouter(actorFor(actor))
	w := doJSON(t, r, http.MethodPost, "/api/users",
		`{"name": "Existing", "email": "Existing@Example.com", "password": "supersecret"}`)

	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Email already exists")
}

func TestUpdateUserDeactivates(t *testing.T) {
	conn := setupHandlerTest(t)

	actor := seedUser(t, conn, "Actor", "actor@example.com")
	target := seedUser(t, conn, "Target", "target@example.com")

	r := newTestRouter(actorFor(actor))
	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/users/%d", target.ID),
		`{"name": "Target", "email": "target@example.com", "is_active": false}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reloaded models.User
	require.NoError(t, conn.First(&reloaded, target.ID).Error)
	assert.False(t, reloaded.IsActive)
}

func TestChangePassword(t *testing.T) {
	conn := setupHandlerTest(t)

	actor := seedUser(t, conn, "Actor", "actor@example.com")
	target := seedUser(t, conn, "Target", "target@example.com")

	r := newTestRouter(actorFor(actor))
	path := fmt.Sprintf("/api/users/%d/change-password", target.ID)

	// Mismatched confirmation is rejected
	w := doJSON(t, r, http.MethodPut, path,
		`{"password": "newpassword", "password_confirmation": "different"}`)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "password_confirmation")

	w = doJSON(t, r, http.MethodPut, path,
		`{"password": "newpassword", "password_confirmation": "newpassword"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reloaded models.User
	require.NoError(t, conn.First(&reloaded, target.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(reloaded.PasswordHash), []byte("newpassword")))
}

func TestAssignRolesAndPermissions(t *testing.T) {
	conn := setupHandlerTest(t)
	require.NoError(t, db.SeedAccessControlOn(conn))
	require.NoError(t, store.ReplaceRolePermissions(conn, "Member", []string{"view project"}))

	actor := seedUser(t, conn, "Actor", "actor@example.com")
	target := seedUser(t, conn, "Target", "target@example.com")

	r := newTestRouter(actorFor(actor))

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/users/%d/assign-roles", target.ID),
		`{"roles": ["Member"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/users/%d/assign-permissions", target.ID),
		`{"permissions": ["create project"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/users/%d/permissions", target.ID), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response struct {
		Roles             []string `json:"roles"`
		DirectPermissions []string `json:"direct_permissions"`
		Permissions       []string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.Equal(t, []string{"Member"}, response.Roles)
	assert.Equal(t, []string{"create project"}, response.DirectPermissions)
	assert.Contains(t, response.Permissions, "create project")
	assert.Contains(t, response.Permissions, "view project", "granted through the Member role")
}

func TestAssignRolesUnknownName(t *testing.T) {
	conn := setupHandlerTest(t)
	require.NoError(t, db.SeedAccessControlOn(conn))

	actor := seedUser(t, conn, "Actor", "actor@example.com")
	target := seedUser(t, conn, "Target", "target@example.com")

	r := newTestRouter(actorFor(actor))
	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/users/%d/assign-roles", target.ID),
		`{"roles": ["Archwizard"]}`)

	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "roles")
}

func TestDeleteUserDetachesEverything(t *testing.T) {
	conn := setupHandlerTest(t)

	actor := seedUser(t, conn, "Actor", "actor@example.com")
	target := seedUser(t, conn, "Target", "target@example.com")
	team := seedTeam(t, conn, "Core", actor.ID, target.ID)

	notification := models.Notification{UserID: target.ID, Title: "Hi", Message: "There", Type: models.NotificationTypeInfo}
	require.NoError(t, conn.Create(&notification).Error)

	r := newTestRouter(actorFor(actor))
	w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/users/%d", target.ID), "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var count int64
	require.NoError(t, conn.Model(&models.User{}).Where("id = ?", target.ID).Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, conn.Model(&models.TeamUser{}).Where("user_id = ?", target.ID).Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, conn.Model(&models.Notification{}).Where("user_id = ?", target.ID).Count(&count).Error)
	assert.Zero(t, count)

	// The team itself survives
	require.NoError(t, conn.Model(&models.Team{}).Where("id = ?", team.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestListNotifications(t *testing.T) {
	conn := setupHandlerTest(t)

	actor := seedUser(t, conn, "Actor", "actor@example.com")
	other := seedUser(t, conn, "Other", "other@example.com")

	for _, userID := range []uint{actor.ID, actor.ID, other.ID} {
		n := models.Notification{UserID: userID, Title: "Hi", Message: "There", Type: models.NotificationTypeInfo}
		require.NoError(t, conn.Create(&n).Error)
	}

	r := newTestRouter(actorFor(actor))
	w := doJSON(t, r, http.MethodGet, "/api/notifications", "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response struct {
		Notifications []NotificationResponse `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Notifications, 2, "only the actor's notifications are listed")
}

func TestMarkNotificationReadOwnership(t *testing.T) {
	conn := setupHandlerTest(t)

	actor := seedUser(t, conn, "Actor", "actor@example.com")
	other := seedUser(t, conn, "Other", "other@example.com")

	notification := models.Notification{UserID: other.ID, Title: "Hi", Message: "There", Type: models.NotificationTypeInfo}
	require.NoError(t, conn.Create(&notification).Error)

	r := newTestRouter(actorFor(actor))
	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/notifications/%d/read", notification.ID), "")

	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	var reloaded models.Notification
	require.NoError(t, conn.First(&reloaded, notification.ID).Error)
	assert.False(t, reloaded.Read)
}
