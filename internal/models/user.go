package models

import (
	"gorm.io/gorm"

	"github.com/feastly-dev/feastly/internal/types"
)

type User struct {
	gorm.Model

	Name         string     `gorm:"not null"`
	Email        string     `gorm:"uniqueIndex;not null"`
	PasswordHash string     `gorm:"not null"`
	Role         types.Role `gorm:"type:varchar(20);not null;default:'user'"`

	// Relationships
	Cart         *Cart         `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Orders       []Order       `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Conversation *Conversation `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
