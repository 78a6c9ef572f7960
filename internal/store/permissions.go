package store

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/taskboard-dev/taskboard/internal/models"
)

// HasPermission reports whether the user holds the named permission, either
// directly or through one of their roles.
func HasPermission(db *gorm.DB, userID uint, name string) (bool, error) {
	var count int64

	err := db.Model(&models.Permission{}).
		Where("permissions.name = ?", name).
		Where(
			`EXISTS (
				SELECT 1 FROM user_permissions up
				WHERE up.permission_id = permissions.id AND up.user_id = ?
			)
			OR EXISTS (
				SELECT 1 FROM user_roles ur
				JOIN role_permissions rp ON rp.role_id = ur.role_id
				WHERE rp.permission_id = permissions.id AND ur.user_id = ?
			)`,
			userID, userID,
		).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// EffectivePermissions returns the union of the user's direct permissions and
// the permissions of their roles, sorted by name.
func EffectivePermissions(db *gorm.DB, userID uint) ([]string, error) {
	var names []string

	err := db.Model(&models.Permission{}).
		Distinct("permissions.name").
		Where(
			`EXISTS (
				SELECT 1 FROM user_permissions up
				WHERE up.permission_id = permissions.id AND up.user_id = ?
			)
			OR EXISTS (
				SELECT 1 FROM user_roles ur
				JOIN role_permissions rp ON rp.role_id = ur.role_id
				WHERE rp.permission_id = permissions.id AND ur.user_id = ?
			)`,
			userID, userID,
		).
		Order("permissions.name").
		Pluck("permissions.name", &names).Error

	if err != nil {
		return nil, err
	}

	return names, nil
}

// ReplaceUserPermissions makes the user's direct permission set exactly names.
// Every name must refer to an existing permission.
func ReplaceUserPermissions(db *gorm.DB, userID uint, names []string) error {
	var user models.User

	if err := db.First(&user, userID).Error; err != nil {
		return err
	}

	permissions, err := permissionsByName(db, names)

	if err != nil {
		return err
	}

	return db.Model(&user).Association("Permissions").Replace(permissions)
}

// ReplaceUserRoles makes the user's role set exactly names. Every name must
// refer to an existing role.
func ReplaceUserRoles(db *gorm.DB, userID uint, names []string) error {
	var user models.User

	if err := db.First(&user, userID).Error; err != nil {
		return err
	}

	var roles []models.Role

	if len(names) > 0 {
		if err := db.Where("name IN ?", names).Find(&roles).Error; err != nil {
			return err
		}

		if len(roles) != len(uniqueNames(names)) {
			return fmt.Errorf("unknown role name in %v", names)
		}
	}

	return db.Model(&user).Association("Roles").Replace(roles)
}

// ReplaceRolePermissions makes the role's permission set exactly names.
func ReplaceRolePermissions(db *gorm.DB, roleName string, names []string) error {
	var role models.Role

	if err := db.Where("name = ?", roleName).First(&role).Error; err != nil {
		return err
	}

	permissions, err := permissionsByName(db, names)

	if err != nil {
		return err
	}

	return db.Model(&role).Association("Permissions").Replace(permissions)
}

func permissionsByName(db *gorm.DB, names []string) ([]models.Permission, error) {
	var permissions []models.Permission

	if len(names) == 0 {
		return permissions, nil
	}

	if err := db.Where("name IN ?", names).Find(&permissions).Error; err != nil {
		return nil, err
	}

	if len(permissions) != len(uniqueNames(names)) {
		return nil, fmt.Errorf("unknown permission name in %v", names)
	}

	return permissions, nil
}

func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	unique := names[:0:0]

	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			unique = append(unique, name)
		}
	}

	return unique
}
