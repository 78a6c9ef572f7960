package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ProjectStatusPlanning  = "planning"
	ProjectStatusOngoing   = "ongoing"
	ProjectStatusOnHold    = "on_hold"
	ProjectStatusCompleted = "completed"
	ProjectStatusCancelled = "cancelled"
)

type Project struct {
	gorm.Model

	TeamID      uint   `gorm:"not null;index"`
	OwnerID     uint   `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Description string
	Status      string `gorm:"not null;default:planning"`
	StartDate   *time.Time
	DueDate     *time.Time

	// Relationships
	Team         Team         `gorm:"foreignKey:TeamID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Owner        User         `gorm:"foreignKey:OwnerID"`
	TaskStatuses []TaskStatus `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Tasks        []Task       `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
