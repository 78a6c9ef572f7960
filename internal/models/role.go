package models

import "gorm.io/gorm"

type Role struct {
	gorm.Model

	Name string `gorm:"uniqueIndex;not null"`

	// Relationships
	Permissions []Permission `gorm:"many2many:role_permissions"`
}
