package models

import "gorm.io/gorm"

// MenuItem prices are integers in the minor currency unit.
type MenuItem struct {
	gorm.Model

	CategoryID  uint   `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Description string
	Price       int64  `gorm:"not null"`
	ImageURL    string
	IsAvailable bool `gorm:"not null;default:true"`
	IsSpicy     bool `gorm:"not null;default:false"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID"`
}
