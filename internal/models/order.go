package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/feastly-dev/feastly/internal/types"
)

type Order struct {
	gorm.Model

	UserID          uint                `gorm:"not null;index"`
	OrderStatus     types.OrderStatus   `gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentStatus   types.PaymentStatus `gorm:"type:varchar(20);not null;default:'unpaid'"`
	TotalAmount     int64               `gorm:"not null"`
	ServiceFee      int64               `gorm:"not null;default:0"`
	DeliveryAddress string              `gorm:"not null"`
	Notes           string
	PaymentRef      string
	IdempotencyKey  string `gorm:"uniqueIndex;not null"`

	// Raw gateway verification response captured at commit time, for
	// later reconciliation by hand.
	GatewaySnapshot datatypes.JSON `gorm:"type:jsonb"`

	// Relationships
	User  User        `gorm:"foreignKey:UserID" json:"-"`
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// OrderItem freezes quantity, unit price and subtotal at creation time.
// Historical orders keep their value when the menu price later changes.
type OrderItem struct {
	gorm.Model

	OrderID    uint  `gorm:"not null;index"`
	MenuItemID uint  `gorm:"not null"`
	Quantity   int   `gorm:"not null"`
	UnitPrice  int64 `gorm:"not null"`
	Subtotal   int64 `gorm:"not null"`

	// Relationships
	Order    Order    `gorm:"foreignKey:OrderID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	MenuItem MenuItem `gorm:"foreignKey:MenuItemID"`
}
