package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/store"
	"github.com/taskboard-dev/taskboard/internal/utils"
)

type TeamRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

type AssignUsersRequest struct {
	TeamID  uint   `json:"team_id" binding:"required"`
	UserIDs []uint `json:"user_ids"`
}

type TeamResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	CreatedBy   uint   `json:"created_by"`
	UpdatedBy   uint   `json:"updated_by"`
	CreatorName string `json:"creator_name,omitempty"`
	MemberIDs   []uint `json:"member_ids"`
}

func ListTeams(ctx *gin.Context) {
	rows, meta, err := store.ListTeams(db.DB, utils.GetPage(ctx))

	if err != nil {
		log.Printf("Failed to list teams: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve teams"})
		return
	}

	teams := make([]TeamResponse, 0, len(rows))

	for _, row := range rows {
		memberIDs, err := store.TeamMemberIDs(db.DB, row.ID)

		if err != nil {
			log.Printf("Failed to load members of team %d: %v", row.ID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve teams"})
			return
		}

		teams = append(teams, TeamResponse{
			ID:          row.ID,
			Name:        row.Name,
			CreatedBy:   row.CreatedBy,
			UpdatedBy:   row.UpdatedBy,
			CreatorName: row.CreatorName,
			MemberIDs:   memberIDs,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"teams": teams,
		"meta":  meta,
	})
}

func CreateTeam(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req TeamRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	team := models.Team{
		Name:      req.Name,
		CreatedBy: userID,
		UpdatedBy: userID,
	}

	if err := db.DB.Create(&team).Error; err != nil {
		log.Printf("Failed to create team: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create team"})
		return
	}

	ctx.JSON(http.StatusCreated, TeamResponse{
		ID:        team.ID,
		Name:      team.Name,
		CreatedBy: team.CreatedBy,
		UpdatedBy: team.UpdatedBy,
		MemberIDs: []uint{},
	})
}

func UpdateTeam(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	team, ok := requireTeam(ctx)

	if !ok {
		return
	}

	var req TeamRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	team.Name = req.Name
	team.UpdatedBy = userID

	if err := db.DB.Save(team).Error; err != nil {
		log.Printf("Failed to update team %d: %v", team.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update team"})
		return
	}

	memberIDs, err := store.TeamMemberIDs(db.DB, team.ID)

	if err != nil {
		log.Printf("Failed to load members of team %d: %v", team.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
		return
	}

	ctx.JSON(http.StatusOK, TeamResponse{
		ID:        team.ID,
		Name:      team.Name,
		CreatedBy: team.CreatedBy,
		UpdatedBy: team.UpdatedBy,
		MemberIDs: memberIDs,
	})
}

func DeleteTeam(ctx *gin.Context) {
	team, ok := requireTeam(ctx)

	if !ok {
		return
	}

	if err := store.DeleteTeam(db.DB, team.ID); err != nil {
		log.Printf("Failed to delete team %d: %v", team.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete team"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// GetTeamUsers returns the team's current member ids plus the users that may
// be assigned to it: anyone without a team, or whose only team is this one.
func GetTeamUsers(ctx *gin.Context) {
	team, ok := requireTeam(ctx)

	if !ok {
		return
	}

	assignedIDs, err := store.TeamMemberIDs(db.DB, team.ID)

	if err != nil {
		log.Printf("Failed to load members of team %d: %v", team.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team members"})
		return
	}

	available, meta, err := store.AvailableUsersForTeam(db.DB, team.ID, utils.GetPage(ctx))

	if err != nil {
		log.Printf("Failed to load available users for team %d: %v", team.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}

	users := make([]UserResponse, 0, len(available))

	for _, user := range available {
		users = append(users, UserResponse{
			ID:       user.ID,
			Name:     user.Name,
			Email:    user.Email,
			IsActive: user.IsActive,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"assigned_user_ids": assignedIDs,
		"users":             users,
		"meta":              meta,
	})
}

// AssignUsers replaces a team's membership set.
func AssignUsers(ctx *gin.Context) {
	var req AssignUsersRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	var team models.Team

	if err := db.DB.First(&team, req.TeamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, fieldError("team_id", "The selected team does not exist"))
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
		}
		return
	}

	if len(req.UserIDs) > 0 {
		var count int64

		if err := db.DB.Model(&models.User{}).Where("id IN ?", req.UserIDs).Count(&count).Error; err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
			return
		}

		if count != int64(len(req.UserIDs)) {
			ctx.JSON(http.StatusBadRequest, fieldError("user_ids", "One or more selected users do not exist"))
			return
		}
	}

	err := store.ReplaceTeamMembers(db.DB, team.ID, req.UserIDs, cfg.Teams.ExclusiveMembership)

	var exclusiveErr *store.ExclusiveMembershipError

	if errors.As(err, &exclusiveErr) {
		ctx.JSON(http.StatusBadRequest, fieldError("user_ids", "One or more selected users already belong to another team"))
		return
	}

	if err != nil {
		log.Printf("Failed to assign users to team %d: %v", team.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update team members"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Team members have been updated!"})
}

func requireTeam(ctx *gin.Context) (*models.Team, bool) {
	teamID, err := utils.GetTeamID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	var team models.Team

	if err := db.DB.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
		}
		return nil, false
	}

	return &team, true
}
