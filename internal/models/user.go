package models

import "gorm.io/gorm"

type User struct {
	gorm.Model

	Name         string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	IsActive     bool   `gorm:"not null;default:true"`

	// Relationships
	Memberships   []TeamUser     `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Roles         []Role         `gorm:"many2many:user_roles"`
	Permissions   []Permission   `gorm:"many2many:user_permissions"`
	OwnedProjects []Project      `gorm:"foreignKey:OwnerID"`
	Tasks         []Task         `gorm:"foreignKey:AssignedTo;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	Notifications []Notification `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
