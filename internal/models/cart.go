package models

import "gorm.io/gorm"

// Cart is the single open cart of a user. The unique index on UserID is
// what enforces one-cart-per-user; adding items upserts lines into it.
type Cart struct {
	gorm.Model

	UserID uint `gorm:"not null;uniqueIndex"`

	// Relationships
	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

type CartItem struct {
	gorm.Model

	CartID       uint `gorm:"not null;uniqueIndex:idx_cart_menu_item"`
	MenuItemID   uint `gorm:"not null;uniqueIndex:idx_cart_menu_item"`
	Quantity     int  `gorm:"not null"`
	Instructions string

	// Relationships
	Cart     Cart     `gorm:"foreignKey:CartID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	MenuItem MenuItem `gorm:"foreignKey:MenuItemID"`
}
