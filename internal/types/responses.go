package types

import "time"

type UserResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

type CartLineResponse struct {
	ID           uint   `json:"id"`
	MenuItemID   uint   `json:"menu_item_id"`
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
	UnitPrice    int64  `json:"unit_price"`
	Subtotal     int64  `json:"subtotal"`
	Instructions string `json:"instructions,omitempty"`
}

type CartResponse struct {
	Items      []CartLineResponse `json:"items"`
	Subtotal   int64              `json:"subtotal"`
	ServiceFee int64              `json:"service_fee"`
	Total      int64              `json:"total"`
}

type OrderItemResponse struct {
	ID         uint   `json:"id"`
	MenuItemID uint   `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
	Subtotal   int64  `json:"subtotal"`
}

type OrderResponse struct {
	ID              uint                `json:"id"`
	OrderStatus     OrderStatus         `json:"order_status"`
	PaymentStatus   PaymentStatus       `json:"payment_status"`
	TotalAmount     int64               `json:"total_amount"`
	ServiceFee      int64               `json:"service_fee"`
	DeliveryAddress string              `json:"delivery_address"`
	Notes           string              `json:"notes,omitempty"`
	PaymentRef      string              `json:"payment_ref,omitempty"`
	Items           []OrderItemResponse `json:"items,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

type ConversationResponse struct {
	ID            uint               `json:"id"`
	UserID        uint               `json:"user_id"`
	UserName      string             `json:"user_name,omitempty"`
	Status        ConversationStatus `json:"status"`
	LastMessage   string             `json:"last_message,omitempty"`
	LastMessageAt *time.Time         `json:"last_message_at,omitempty"`
}

type MessageResponse struct {
	ID             uint      `json:"id"`
	ConversationID uint      `json:"conversation_id"`
	SenderID       uint      `json:"sender_id"`
	SenderRole     Role      `json:"sender_role"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}
