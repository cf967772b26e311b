package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/feastly-dev/feastly/internal/types"
)

// Conversation is the single support thread of a user. LastMessage and
// LastMessageAt are denormalized for the super-admin listing.
type Conversation struct {
	gorm.Model

	UserID        uint                     `gorm:"not null;uniqueIndex"`
	Status        types.ConversationStatus `gorm:"type:varchar(20);not null;default:'active'"`
	LastMessage   string
	LastMessageAt *time.Time

	// Relationships
	User     User      `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

type Message struct {
	gorm.Model

	ConversationID uint       `gorm:"not null;index"`
	SenderID       uint       `gorm:"not null"`
	SenderRole     types.Role `gorm:"type:varchar(20);not null"`
	Content        string     `gorm:"not null"`
	IsRead         bool       `gorm:"not null;default:false"`

	// Relationships
	Conversation Conversation `gorm:"foreignKey:ConversationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Sender       User         `gorm:"foreignKey:SenderID"`
}
