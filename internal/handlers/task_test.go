package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskboard-dev/taskboard/internal/models"
)

func TestCreateTaskAssignsNextOrder(t *testing.T) {
	conn := setupHandlerTest(t)

	owner := seedUser(t, conn, "Owner", "owner@example.com")
	team := seedTeam(t, conn, "Core", owner.ID)
	project := seedProject(t, conn, team.ID, owner.ID, "Website")
	todo := seedStatus(t, conn, project.ID, "To Do", 0)

	for order := 0; order <= 2; order++ {
		seedTask(t, conn, project.ID, todo.ID, "existing", order)
	}

	r := newTestRouter(actorFor(owner))
	body := fmt.Sprintf(`{"task_status_id": %d, "title": "New task"}`, todo.ID)
	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks", project.ID), body)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var response TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 3, response.Order)
	assert.Equal(t, models.TaskPriorityMedium, response.Priority)

	var task models.Task
	require.NoError(t, conn.First(&task, response.ID).Error)
	assert.Equal(t, 3, task.Order)
	assert.Equal(t, todo.ID, task.TaskStatusID)
}

func TestCreateTaskFirstInColumn(t *testing.T) {
	conn := setupHandlerTest(t)

	owner := seedUser(t, conn, "Owner", "owner@example.com")
	team := seedTeam(t, conn, "Core", owner.ID)
	project := seedProject(t, conn, team.ID, owner.ID, "Website")
	todo := seedStatus(t, conn, project.ID, "To Do", 0)

	r := newTestRouter(actorFor(owner))
	body := fmt.Sprintf(`{"task_status_id": %d, "title": "First"}`, todo.ID)
	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks", project.ID), body)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var response TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 0, response.Order)
}

func TestCreateTaskRejectsForeignStatus(t *testing.T) {
	conn := setupHandlerTest(t)

	owner := seedUser(t, conn, "Owner", "owner@example.com")
	team := seedTeam(t, conn, "Core", owner.ID)
	project := seedProject(t, conn, team.ID, owner.ID, "Website")
	other := seedProject(t, conn, team.ID, owner.ID, "App")
	foreign := seedStatus(t, conn, other.ID, "To Do", 0)

	r := newTestRouter(actorFor(owner))
	body := fmt.Sprintf(`{"task_status_id": %d, "title": "Sneaky"}`, foreign.ID)
	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks", project.ID), body)

	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	var count int64
	require.NoError(t, conn.Model(&models.Task{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateTaskRejectsUnknownAssignee(t *testing.T) {
	conn := setupHandlerTest(t)

	owner := seedUser(t, conn, "Owner", "owner@example.com")
	team := seedTeam(t, conn, "Core", owner.ID)
	project := seedProject(t, conn, team.ID, owner.ID, "Website")
	todo := seedStatus(t, conn, project.ID, "To Do", 0)

	r := newTestRouter(actorFor(owner))
	body := fmt.Sprintf(`{"task_status_id": %d, "title": "Task", "assigned_to": 999}`, todo.ID)
	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks", project.ID), body)

	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "assigned_to")
}

func TestMoveTask(t *testing.T) {
	conn := setupHandlerTest(t)

	owner := seedUser(t, conn, "Owner", "owner@example.com")
	team := seedTeam(t, conn, "Core", owner.ID)
	project := seedProject(t, conn, team.ID, owner.ID, "Website")
	todo := seedStatus(t, conn, project.ID, "To Do", 0)
	done := seedStatus(t, conn, project.ID, "Done", 1)

	moving := seedTask(t, conn, project.ID, todo.ID, "moving", 0)
	sibling := seedTask(t, conn, project.ID, todo.ID, "sibling", 1)
	resident := seedTask(t, conn, project.ID, done.ID, "resident", 0)

	r := newTestRouter(actorFor(owner))
	body := fmt.Sprintf(`{"task_status_id": %d, "order": 1}`, done.ID)
	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/projects/%d/tasks/%d/status", project.ID, moving.ID), body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var moved models.Task
	require.NoError(t, conn.First(&moved, moving.ID).Error)
	assert.Equal(t, done.ID, moved.TaskStatusID)
	assert.Equal(t, 1, moved.Order)

	// Siblings in both columns keep their position
	var untouched models.Task
	require.NoError(t, conn.First(&untouched, sibling.ID).Error)
	assert.Equal(t, todo.ID, untouched.TaskStatusID)
	assert.Equal(t, 1, untouched.Order)

	require.NoError(t, conn.First(&untouched, resident.ID).Error)
	assert.Equal(t, 0, untouched.Order)
}

func TestMoveTaskToOrderZero(t *testing.T) {
	conn := setupHandlerTest(t)

	owner := seedUser(t, conn, "Owner", "owner@example.com")
	team := seedTeam(t, conn, "Core", owner.ID)
	project := seedProject(t, conn, team.ID, owner.ID, "Website")
	todo := seedStatus(t, conn, project.ID, "To Do", 0)
	done := seedStatus(t, conn, project.ID, "Done", 1)
	task := seedTask(t, conn, project.ID, todo.ID, "task", 4)

	r := newTestRouter(actorFor(owner))
	body := fmt.Sprintf(`{"task_status_id": %d, "order": 0}`, done.ID)
	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/projects/%d/tasks/%d/status", project.ID, task.ID), body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var moved models.Task
	require.NoError(t, conn.First(&moved, task.ID).Error)
	assert.Equal(t, 0, moved.Order)
}

func TestMoveTaskMissingOrder(t *testing.T) {
	conn := setupHandlerTest(t)

	owner := seedUser(t, conn, "Owner", "owner@example.com")
	team := seedTeam(t, conn, "Core", owner.ID)
	project := seedProject(t, conn, team.ID, owner.ID, "Website")
	todo := seedStatus(t, conn, project.ID, "To Do", 0)
	task := seedTask(t, conn, project.ID, todo.ID, "task", 0)

	r := newTestRouter(actorFor(owner))
	body := fmt.Sprintf(`{"task_status_id": %d}`, todo.ID)
	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/projects/%d/tasks/%d/status", project.ID, task.ID), body)

	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "order")
}

func TestMoveTaskCrossProject(t *testing.T) {
	conn := setupHandlerTest(t)

	owner := seedUser(t, conn, "Owner", "owner@example.com")
	team := seedTeam(t, conn, "Core", owner.ID)
	project := seedProject(t, conn, team.ID, owner.ID, "Website")
	todo := seedStatus(t, conn, project.ID, "To Do", 0)

	other := seedProject(t, conn, team.ID, owner.ID, "App")
	otherStatus := seedStatus(t, conn, other.ID, "Backlog", 0)
	foreignTask := seedTask(t, conn, other.ID, otherStatus.ID, "foreign", 2)

	r := newTestRouter(actorFor(owner))

	// A task from another project cannot be addressed through this one
	body := fmt.Sprintf(`{"task_status_id": %d, "order": 0}`, todo.ID)
	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/projects/%d/tasks/%d/status", project.ID, foreignTask.ID), body)

	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Task does not belong to this project")

	var reloaded models.Task
	require.NoError(t, conn.First(&reloaded, foreignTask.ID).Error)
	assert.Equal(t, otherStatus.ID, reloaded.TaskStatusID)
	assert.Equal(t, 2, reloaded.Order)

	// Nor can a task be moved into another project's column
	task := seedTask(t, conn, project.ID, todo.ID, "local", 0)
	body = fmt.Sprintf(`{"task_status_id": %d, "order": 0}`, otherStatus.ID)
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/projects/%d/tasks/%d/status", project.ID, task.ID), body)

	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Task status does not belong to this project")

	require.NoError(t, conn.First(&reloaded, task.ID).Error)
	assert.Equal(t, todo.ID, reloaded.TaskStatusID)
}

func TestUpdateTaskCrossProject(t *testing.T) {
	conn := setupHandlerTest(t)

	owner := seedUser(t, conn, "Owner", "owner@example.com")
	team := seedTeam(t, conn, "Core", owner.ID)
	project := seedProject(t, conn, team.ID, owner.ID, "Website")
	other := seedProject(t, conn, team.ID, owner.ID, "App")
	otherStatus := seedStatus(t, conn, other.ID, "Backlog", 0)
	foreignTask := seedTask(t, conn, other.ID, otherStatus.ID, "foreign", 0)

	r := newTestRouter(actorFor(owner))
	w := doJSON(t, r, http.MethodPut,
		fmt.Sprintf("/api/projects/%d/tasks/%d", project.ID, foreignTask.ID),
		`{"title": "hijacked"}`)

	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	var reloaded models.Task
	require.NoError(t, conn.First(&reloaded, foreignTask.ID).Error)
	assert.Equal(t, "foreign", reloaded.Title)
}

func TestUpdateTaskCompletion(t *testing.T) {
	conn := setupHandlerTest(t)

	owner := seedUser(t, conn, "Owner", "owner@example.com")
	team := seedTeam(t, conn, "Core", owner.ID)
	project := seedProject(t, conn, team.ID, owner.ID, "Website")
	todo := seedStatus(t, conn, project.ID, "To Do", 0)
	task := seedTask(t, conn, project.ID, todo.ID, "task", 0)

	r := newTestRouter(actorFor(owner))
	path := fmt.Sprintf("/api/projects/%d/tasks/%d", project.ID, task.ID)

	w := doJSON(t, r, http.MethodPut, path, `{"completed": true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reloaded models.Task
	require.NoError(t, conn.First(&reloaded, task.ID).Error)
	require.NotNil(t, reloaded.CompletedAt)

	w = doJSON(t, r, http.MethodPut, path, `{"completed": false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, conn.First(&reloaded, task.ID).Error)
	assert.Nil(t, reloaded.CompletedAt)
}

func TestUpdateTaskClearsAssignee(t *testing.T) {
	conn := setupHandlerTest(t)

	owner := seedUser(t, conn, "Owner", "owner@example.com")
	assignee := seedUser(t, conn, "Assignee", "assignee@example.com")
	team := seedTeam(t, conn, "Core", owner.ID)
	project := seedProject(t, conn, team.ID, owner.ID, "Website")
	todo := seedStatus(t, conn, project.ID, "To Do", 0)

	task := seedTask(t, conn, project.ID, todo.ID, "task", 0)
	require.NoError(t, conn.Model(&task).Update("assigned_to", assignee.ID).Error)

	r := newTestRouter(actorFor(owner))
	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/projects/%d/tasks/%d", project.ID, task.ID), `{"assigned_to": 0}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reloaded models.Task
	require.NoError(t, conn.First(&reloaded, task.ID).Error)
	assert.Nil(t, reloaded.AssignedTo)
}

func TestUpdateTaskNoFields(t *testing.T) {
	conn := setupHandlerTest(t)

	owner := seedUser(t, conn, "Owner", "owner@example.com")
	team := seedTeam(t, conn, "Core", owner.ID)
	project := seedProject(t, conn, team.ID, owner.ID, "Website")
	todo := seedStatus(t, conn, project.ID, "To Do", 0)
	task := seedTask(t, conn, project.ID, todo.ID, "task", 0)

	r := newTestRouter(actorFor(owner))
	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/projects/%d/tasks/%d", project.ID, task.ID), `{}`)

	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestDeleteTask(t *testing.T) {
	conn := setupHandlerTest(t)

	owner := seedUser(t, conn, "Owner", "owner@example.com")
	team := seedTeam(t, conn, "Core", owner.ID)
	project := seedProject(t, conn, team.ID, owner.ID, "Website")
	todo := seedStatus(t, conn, project.ID, "To Do", 0)
	task := seedTask(t, conn, project.ID, todo.ID, "task", 0)

	r := newTestRouter(actorFor(owner))
	w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/projects/%d/tasks/%d", project.ID, task.ID), "")

	require.Equal(t, http.StatusNoContent, w.Code)

	var count int64
	require.NoError(t, conn.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListProjectTasksBoardShape(t *testing.T) {
	conn := setupHandlerTest(t)

	owner := seedUser(t, conn, "Owner", "owner@example.com")
	team := seedTeam(t, conn, "Core", owner.ID)
	project := seedProject(t, conn, team.ID, owner.ID, "Website")

	done := seedStatus(t, conn, project.ID, "Done", 1)
	todo := seedStatus(t, conn, project.ID, "To Do", 0)
	seedTask(t, conn, project.ID, todo.ID, "b", 1)
	seedTask(t, conn, project.ID, todo.ID, "a", 0)

	r := newTestRouter(actorFor(owner))
	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/projects/%d/tasks", project.ID), "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response struct {
		Project  ProjectResponse        `json:"project"`
		Statuses []StatusColumnResponse `json:"statuses"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.Equal(t, project.ID, response.Project.ID)
	require.Len(t, response.Statuses, 2)
	assert.Equal(t, todo.ID, response.Statuses[0].ID)
	assert.Equal(t, done.ID, response.Statuses[1].ID)

	require.Len(t, response.Statuses[0].Tasks, 2)
	assert.Equal(t, "a", response.Statuses[0].Tasks[0].Title)
	assert.Equal(t, "b", response.Statuses[0].Tasks[1].Title)
	assert.Empty(t, response.Statuses[1].Tasks)
}
