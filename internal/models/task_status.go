package models

import "gorm.io/gorm"

// DefaultStatusColor is applied when a column is created without one (slate-500).
const DefaultStatusColor = "#64748b"

type TaskStatus struct {
	gorm.Model

	ProjectID uint   `gorm:"not null;index"`
	Name      string `gorm:"not null"`
	Color     string `gorm:"not null;default:#64748b"`
	Order     int    `gorm:"not null;default:0"`

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Tasks   []Task  `gorm:"foreignKey:TaskStatusID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
