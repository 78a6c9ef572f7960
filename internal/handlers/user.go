package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/store"
	"github.com/taskboard-dev/taskboard/internal/utils"
)

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type UpdateUserRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email"`
	IsActive *bool  `json:"is_active" binding:"required"`
}

type ChangePasswordRequest struct {
	Password             string `json:"password" binding:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required,eqfield=Password"`
}

type AssignPermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

type AssignRolesRequest struct {
	Roles []string `json:"roles"`
}

type UserDetailResponse struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	IsActive    bool     `json:"is_active"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

func ListUsers(ctx *gin.Context) {
	users, meta, err := store.ListUsers(db.DB, utils.GetPage(ctx))

	if err != nil {
		log.Printf("Failed to list users: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}

	response := make([]UserDetailResponse, 0, len(users))

	for _, user := range users {
		response = append(response, toUserDetailResponse(user))
	}

	var allRoles []models.Role
	var allPermissions []models.Permission

	if err := db.DB.Order("name").Find(&allRoles).Error; err != nil {
		log.Printf("Failed to list roles: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve roles"})
		return
	}

	if err := db.DB.Order("name").Find(&allPermissions).Error; err != nil {
		log.Printf("Failed to list permissions: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve permissions"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"users":           response,
		"meta":            meta,
		"all_roles":       roleNames(allRoles),
		"all_permissions": permissionNames(allPermissions),
	})
}

func CreateUser(ctx *gin.Context) {
	var req CreateUserRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var existingUser models.User

	err := db.DB.Where("email = ?", req.Email).First(&existingUser).Error

	if err == nil {
		ctx.JSON(http.StatusBadRequest, fieldError("email", "Email already exists"))
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking existing user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)

	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		IsActive:     true,
	}

	if err := db.DB.Create(&user).Error; err != nil {
		log.Printf("Failed to create user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully!",
		"user":    toUserDetailResponse(user),
	})
}

func UpdateUser(ctx *gin.Context) {
	user, ok := requireUser(ctx)

	if !ok {
		return
	}

	var req UpdateUserRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	newEmail := strings.ToLower(strings.TrimSpace(req.Email))

	if newEmail != user.Email {
		var existingUser models.User

		err := db.DB.Where("email = ? AND id != ?", newEmail, user.ID).First(&existingUser).Error

		if err == nil {
			ctx.JSON(http.StatusBadRequest, fieldError("email", "Email already exists"))
			return
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Database error when checking existing email: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	updates := map[string]interface{}{
		"name":      strings.TrimSpace(req.Name),
		"email":     newEmail,
		"is_active": *req.IsActive,
	}

	if err := db.DB.Model(user).Updates(updates).Error; err != nil {
		log.Printf("Failed to update user %d: %v", user.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully!",
		"user":    toUserDetailResponse(*user),
	})
}

func ChangePassword(ctx *gin.Context) {
	user, ok := requireUser(ctx)

	if !ok {
		return
	}

	var req ChangePasswordRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)

	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := db.DB.Model(user).Update("password_hash", string(passwordHash)).Error; err != nil {
		log.Printf("Failed to change password for user %d: %v", user.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password updated successfully!"})
}

func DeleteUser(ctx *gin.Context) {
	user, ok := requireUser(ctx)

	if !ok {
		return
	}

	if err := store.DeleteUser(db.DB, user.ID); err != nil {
		log.Printf("Failed to delete user %d: %v", user.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "User deleted successfully."})
}

func GetUserPermissions(ctx *gin.Context) {
	user, ok := requireUser(ctx)

	if !ok {
		return
	}

	var full models.User

	err := db.DB.Preload("Roles").Preload("Permissions").First(&full, user.ID).Error

	if err != nil {
		log.Printf("Failed to load user %d: %v", user.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	effective, err := store.EffectivePermissions(db.DB, user.ID)

	if err != nil {
		log.Printf("Failed to load permissions for user %d: %v", user.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"roles":              roleNames(full.Roles),
		"direct_permissions": permissionNames(full.Permissions),
		"permissions":        effective,
	})
}

func AssignPermissions(ctx *gin.Context) {
	user, ok := requireUser(ctx)

	if !ok {
		return
	}

	var req AssignPermissionsRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	if err := store.ReplaceUserPermissions(db.DB, user.ID, req.Permissions); err != nil {
		ctx.JSON(http.StatusBadRequest, fieldError("permissions", "One or more permission names are unknown"))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Permissions updated successfully!"})
}

func AssignRoles(ctx *gin.Context) {
	user, ok := requireUser(ctx)

	if !ok {
		return
	}

	var req AssignRolesRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	if err := store.ReplaceUserRoles(db.DB, user.ID, req.Roles); err != nil {
		ctx.JSON(http.StatusBadRequest, fieldError("roles", "One or more role names are unknown"))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Roles updated successfully!"})
}

func requireUser(ctx *gin.Context) (*models.User, bool) {
	userID, err := utils.GetUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	var user models.User

	if err := db.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return nil, false
	}

	return &user, true
}

func toUserDetailResponse(user models.User) UserDetailResponse {
	return UserDetailResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		IsActive:    user.IsActive,
		Roles:       roleNames(user.Roles),
		Permissions: permissionNames(user.Permissions),
	}
}

func roleNames(roles []models.Role) []string {
	names := make([]string, 0, len(roles))

	for _, role := range roles {
		names = append(names, role.Name)
	}

	return names
}

func permissionNames(permissions []models.Permission) []string {
	names := make([]string, 0, len(permissions))

	for _, permission := range permissions {
		names = append(names, permission.Name)
	}

	return names
}
