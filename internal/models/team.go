package models

import "gorm.io/gorm"

type Team struct {
	gorm.Model

	Name      string `gorm:"not null"`
	CreatedBy uint   `gorm:"not null;index"`
	UpdatedBy uint   `gorm:"not null;index"`

	// Relationships
	Creator  User       `gorm:"foreignKey:CreatedBy"`
	Updater  User       `gorm:"foreignKey:UpdatedBy"`
	Members  []TeamUser `gorm:"foreignKey:TeamID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Projects []Project  `gorm:"foreignKey:TeamID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
