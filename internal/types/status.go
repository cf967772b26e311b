package types

// OrderStatus is the kitchen workflow state of an order.
type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderProcessing     OrderStatus = "processing"
	OrderCooking        OrderStatus = "cooking"
	OrderReady          OrderStatus = "ready"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderCompleted      OrderStatus = "completed"
	OrderCancelled      OrderStatus = "cancelled"
)

// orderTransitions holds the allowed forward edges. Delivery may be
// skipped for pickup orders (ready -> completed).
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:        {OrderProcessing, OrderCancelled},
	OrderProcessing:     {OrderCooking, OrderCancelled},
	OrderCooking:        {OrderReady, OrderCancelled},
	OrderReady:          {OrderOutForDelivery, OrderCompleted, OrderCancelled},
	OrderOutForDelivery: {OrderCompleted, OrderCancelled},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderPending, OrderProcessing, OrderCooking, OrderReady,
		OrderOutForDelivery, OrderCompleted, OrderCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

// PaymentStatus tracks the payment lifecycle independently of the
// kitchen workflow, except where coupled in the order handlers:
// an order cannot complete unpaid.
type PaymentStatus string

const (
	PaymentUnpaid    PaymentStatus = "unpaid"
	PaymentPaid      PaymentStatus = "paid"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch PaymentStatus(s) {
	case PaymentUnpaid, PaymentPaid, PaymentFailed, PaymentCancelled:
		return PaymentStatus(s), true
	}
	return "", false
}

// ConversationStatus is the support-thread state.
type ConversationStatus string

const (
	ConversationActive ConversationStatus = "active"
	ConversationClosed ConversationStatus = "closed"
)
