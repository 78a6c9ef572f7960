package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/internal/store"
)

func paramID(ctx *gin.Context, name string) (uint, error) {
	idStr := ctx.Param(name)

	if idStr == "" {
		return 0, errors.New("Missing " + name + " parameter")
	}

	id, err := strconv.ParseUint(idStr, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid " + name + " parameter")
	}

	return uint(id), nil
}

func GetProjectID(ctx *gin.Context) (uint, error) {
	return paramID(ctx, "project_id")
}

func GetTaskID(ctx *gin.Context) (uint, error) {
	return paramID(ctx, "task_id")
}

func GetTaskStatusID(ctx *gin.Context) (uint, error) {
	return paramID(ctx, "task_status_id")
}

func GetTeamID(ctx *gin.Context) (uint, error) {
	return paramID(ctx, "team_id")
}

func GetUserID(ctx *gin.Context) (uint, error) {
	return paramID(ctx, "user_id")
}

func GetNotificationID(ctx *gin.Context) (uint, error) {
	return paramID(ctx, "notification_id")
}

// GetPage reads page/per_page query parameters, leaving bounds checking to
// the store layer.
func GetPage(ctx *gin.Context) store.PageRequest {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(ctx.DefaultQuery("per_page", "10"))

	return store.PageRequest{Page: page, PerPage: perPage}
}
