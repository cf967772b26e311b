package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderPending, OrderProcessing, true},
		{OrderPending, OrderCancelled, true},
		{OrderPending, OrderCompleted, false},
		{OrderProcessing, OrderCooking, true},
		{OrderCooking, OrderReady, true},
		{OrderReady, OrderOutForDelivery, true},
		{OrderReady, OrderCompleted, true}, // pickup skips delivery
		{OrderOutForDelivery, OrderCompleted, true},
		{OrderOutForDelivery, OrderPending, false},
		{OrderCompleted, OrderCancelled, false},
		{OrderCancelled, OrderPending, false},
		{OrderCooking, OrderCancelled, true},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, OrderCompleted.Terminal())
	assert.True(t, OrderCancelled.Terminal())
	assert.False(t, OrderPending.Terminal())
	assert.False(t, OrderOutForDelivery.Terminal())
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"user", "admin", "superadmin"} {
		role, err := ParseRole(valid)
		assert.NoError(t, err)
		assert.Equal(t, Role(valid), role)
	}

	for _, invalid := range []string{"", "root", "Admin", "super-admin"} {
		_, err := ParseRole(invalid)
		assert.Error(t, err, "%q should not parse", invalid)
	}
}

func TestParseStatuses(t *testing.T) {
	_, ok := ParseOrderStatus("cooking")
	assert.True(t, ok)

	_, ok = ParseOrderStatus("baking")
	assert.False(t, ok)

	_, ok = ParsePaymentStatus("paid")
	assert.True(t, ok)

	_, ok = ParsePaymentStatus("refunded")
	assert.False(t, ok)
}
