package store

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/taskboard-dev/taskboard/internal/models"
)

// ExclusiveMembershipError reports users that could not be assigned because
// they already belong to a different team.
type ExclusiveMembershipError struct {
	UserIDs []uint
}

func (e *ExclusiveMembershipError) Error() string {
	return fmt.Sprintf("%d user(s) already belong to another team", len(e.UserIDs))
}

// TeamRow is a team joined with its creator's name for listings.
type TeamRow struct {
	models.Team
	CreatorName string `json:"creator_name"`
}

// ListTeams returns teams newest first with creator names resolved.
func ListTeams(db *gorm.DB, page PageRequest) ([]TeamRow, PageMeta, error) {
	page = page.normalize()

	var total int64

	if err := db.Model(&models.Team{}).Count(&total).Error; err != nil {
		return nil, PageMeta{}, err
	}

	var rows []TeamRow

	err := page.scope(
		db.Model(&models.Team{}).
			Select("teams.*, users.name AS creator_name").
			Joins("JOIN users ON users.id = teams.created_by").
			Order("teams.updated_at DESC").
			Order("teams.id DESC"),
	).Find(&rows).Error

	if err != nil {
		return nil, PageMeta{}, err
	}

	return rows, page.meta(total), nil
}

// TeamMembers returns the members of a team in membership insertion order.
func TeamMembers(db *gorm.DB, teamID uint) ([]models.User, error) {
	var users []models.User

	err := db.
		Joins("JOIN team_users ON team_users.user_id = users.id").
		Where("team_users.team_id = ?", teamID).
		Order("team_users.id").
		Find(&users).Error

	if err != nil {
		return nil, err
	}

	return users, nil
}

// TeamMemberIDs returns just the member user ids of a team.
func TeamMemberIDs(db *gorm.DB, teamID uint) ([]uint, error) {
	var ids []uint

	err := db.Model(&models.TeamUser{}).
		Where("team_id = ?", teamID).
		Order("id").
		Pluck("user_id", &ids).Error

	if err != nil {
		return nil, err
	}

	return ids, nil
}

// AvailableUsersForTeam lists users assignable to the given team: users with
// no team at all, or users whose only team is this one. Users in any other
// team are excluded.
func AvailableUsersForTeam(db *gorm.DB, teamID uint, page PageRequest) ([]models.User, PageMeta, error) {
	page = page.normalize()

	query := db.Model(&models.User{}).Where(
		`NOT EXISTS (SELECT 1 FROM team_users tu WHERE tu.user_id = users.id)
		OR (
			EXISTS (SELECT 1 FROM team_users tu WHERE tu.user_id = users.id AND tu.team_id = ?)
			AND NOT EXISTS (SELECT 1 FROM team_users tu WHERE tu.user_id = users.id AND tu.team_id <> ?)
		)`,
		teamID, teamID,
	)

	var total int64

	if err := query.Count(&total).Error; err != nil {
		return nil, PageMeta{}, err
	}

	var users []models.User

	if err := page.scope(query.Order("users.name")).Find(&users).Error; err != nil {
		return nil, PageMeta{}, err
	}

	return users, page.meta(total), nil
}

// ReplaceTeamMembers makes the team's membership exactly userIDs: memberships
// outside the set are removed, missing ones are created. With exclusive set,
// users who already belong to a different team are rejected.
func ReplaceTeamMembers(db *gorm.DB, teamID uint, userIDs []uint, exclusive bool) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if exclusive && len(userIDs) > 0 {
			var conflicting []uint

			err := tx.Model(&models.TeamUser{}).
				Where("user_id IN ? AND team_id <> ?", userIDs, teamID).
				Distinct().
				Pluck("user_id", &conflicting).Error

			if err != nil {
				return err
			}

			if len(conflicting) > 0 {
				return &ExclusiveMembershipError{UserIDs: conflicting}
			}
		}

		if len(userIDs) == 0 {
			return tx.Unscoped().
				Where("team_id = ?", teamID).
				Delete(&models.TeamUser{}).Error
		}

		err := tx.Unscoped().
			Where("team_id = ? AND user_id NOT IN ?", teamID, userIDs).
			Delete(&models.TeamUser{}).Error

		if err != nil {
			return err
		}

		var existing []uint

		err = tx.Model(&models.TeamUser{}).
			Where("team_id = ?", teamID).
			Pluck("user_id", &existing).Error

		if err != nil {
			return err
		}

		current := make(map[uint]bool, len(existing))
		for _, id := range existing {
			current[id] = true
		}

		for _, userID := range userIDs {
			if current[userID] {
				continue
			}

			membership := models.TeamUser{TeamID: teamID, UserID: userID}

			if err := tx.Create(&membership).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// DetachTeamMembers removes every membership row of a team.
func DetachTeamMembers(db *gorm.DB, teamID uint) error {
	return db.Unscoped().Where("team_id = ?", teamID).Delete(&models.TeamUser{}).Error
}

// DetachUserTeams removes every membership row of a user.
func DetachUserTeams(db *gorm.DB, userID uint) error {
	return db.Unscoped().Where("user_id = ?", userID).Delete(&models.TeamUser{}).Error
}
