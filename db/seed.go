package db

import (
	"gorm.io/gorm"

	"github.com/taskboard-dev/taskboard/internal/models"
)

var defaultRoles = []string{
	"Project Manager",
	"Member",
}

var defaultPermissions = []string{
	"view team",
	"create team",
	"update team",
	"delete team",
	"assign users",
	"assign permissions",

	"view user",
	"create user",
	"update user",
	"delete user",
	"change password",

	"view project",
	"create project",
	"update project",
	"delete project",
}

// SeedAccessControl makes sure the built-in roles and permission names exist.
// Safe to run on every startup.
func SeedAccessControl() error {
	return SeedAccessControlOn(DB)
}

func SeedAccessControlOn(db *gorm.DB) error {
	for _, name := range defaultPermissions {
		permission := models.Permission{Name: name}

		if err := db.Where("name = ?", name).FirstOrCreate(&permission).Error; err != nil {
			return err
		}
	}

	for _, name := range defaultRoles {
		role := models.Role{Name: name}

		if err := db.Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
			return err
		}
	}

	return nil
}
