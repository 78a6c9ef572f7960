package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	NotificationTypeInfo    = "info"
	NotificationTypeSuccess = "success"
	NotificationTypeWarning = "warning"
)

type Notification struct {
	gorm.Model

	UserID  uint   `gorm:"not null;index"`
	Title   string `gorm:"not null"`
	Message string `gorm:"not null"`
	Type    string `gorm:"not null;default:info"`
	Read    bool   `gorm:"not null;default:false"`
	Data    datatypes.JSON

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
