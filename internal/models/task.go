package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

type Task struct {
	gorm.Model

	ProjectID    uint   `gorm:"not null;index"`
	TaskStatusID uint   `gorm:"not null;index"`
	AssignedTo   *uint  `gorm:"index"`
	Title        string `gorm:"not null"`
	Description  string
	Priority     string `gorm:"not null;default:medium"`
	Order        int    `gorm:"not null;default:0"`
	DueDate      *time.Time
	CompletedAt  *time.Time

	// Relationships
	Project    Project    `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	TaskStatus TaskStatus `gorm:"foreignKey:TaskStatusID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Assignee   *User      `gorm:"foreignKey:AssignedTo"`
}
