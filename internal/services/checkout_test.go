package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/feastly-dev/feastly/internal/apperr"
	"github.com/feastly-dev/feastly/internal/models"
	"github.com/feastly-dev/feastly/internal/payments"
	"github.com/feastly-dev/feastly/internal/types"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateIntent(ctx context.Context, req payments.IntentRequest) (payments.Intent, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payments.Intent), args.Error(1)
}

func (m *mockGateway) VerifyPayment(ctx context.Context, correlationID string) (payments.Verification, error) {
	args := m.Called(ctx, correlationID)
	return args.Get(0).(payments.Verification), args.Error(1)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.MenuItem{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	))

	return gdb
}

func seedUser(t *testing.T, gdb *gorm.DB) models.User {
	t.Helper()

	user := models.User{
		Name:         "Ayu",
		Email:        "ayu@example.com",
		PasswordHash: "x",
		Role:         types.RoleUser,
	}
	require.NoError(t, gdb.Create(&user).Error)
	return user
}

func seedMenuItem(t *testing.T, gdb *gorm.DB, name string, price int64) models.MenuItem {
	t.Helper()

	category := models.Category{Name: "Mains " + name}
	require.NoError(t, gdb.Create(&category).Error)

	item := models.MenuItem{
		CategoryID:  category.ID,
		Name:        name,
		Price:       price,
		IsAvailable: true,
	}
	require.NoError(t, gdb.Create(&item).Error)
	return item
}

func seedCart(t *testing.T, gdb *gorm.DB, userID uint, lines ...models.CartItem) models.Cart {
	t.Helper()

	cart := models.Cart{UserID: userID}
	require.NoError(t, gdb.Create(&cart).Error)

	for i := range lines {
		lines[i].CartID = cart.ID
		require.NoError(t, gdb.Create(&lines[i]).Error)
	}

	return cart
}

func TestAggregateComputesLineSubtotalsAndTotal(t *testing.T) {
	gdb := newTestDB(t)
	user := seedUser(t, gdb)

	nasi := seedMenuItem(t, gdb, "Nasi Goreng", 20000)
	sate := seedMenuItem(t, gdb, "Sate Ayam", 15000)
	soto := seedMenuItem(t, gdb, "Soto", 12500)

	seedCart(t, gdb, user.ID,
		models.CartItem{MenuItemID: nasi.ID, Quantity: 2},
		models.CartItem{MenuItemID: sate.ID, Quantity: 3},
		models.CartItem{MenuItemID: soto.ID, Quantity: 1},
	)

	checkout := NewCheckout(gdb, new(mockGateway), 0)

	summary, err := checkout.Aggregate(user.ID)
	require.NoError(t, err)

	assert.Len(t, summary.Lines, 3)

	var sum int64
	for _, line := range summary.Lines {
		assert.Equal(t, line.UnitPrice*int64(line.Quantity), line.Subtotal)
		sum += line.Subtotal
	}

	assert.Equal(t, sum, summary.Subtotal)
	assert.Equal(t, int64(97500), summary.Total)
}

func TestAggregateEmptyCart(t *testing.T) {
	gdb := newTestDB(t)
	user := seedUser(t, gdb)

	checkout := NewCheckout(gdb, new(mockGateway), 2500)

	summary, err := checkout.Aggregate(user.ID)
	require.NoError(t, err)

	assert.True(t, summary.Empty())
	assert.Zero(t, summary.Total)
	assert.Zero(t, summary.ServiceFee)
}

func TestAggregateAddsServiceFeeOnce(t *testing.T) {
	gdb := newTestDB(t)
	user := seedUser(t, gdb)
	nasi := seedMenuItem(t, gdb, "Nasi Goreng", 20000)

	seedCart(t, gdb, user.ID,
		models.CartItem{MenuItemID: nasi.ID, Quantity: 2},
	)

	checkout := NewCheckout(gdb, new(mockGateway), 5000)

	summary, err := checkout.Aggregate(user.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(40000), summary.Subtotal)
	assert.Equal(t, int64(5000), summary.ServiceFee)
	assert.Equal(t, int64(45000), summary.Total)
}

func TestAggregateRejectsUnavailableItem(t *testing.T) {
	gdb := newTestDB(t)
	user := seedUser(t, gdb)

	nasi := seedMenuItem(t, gdb, "Nasi Goreng", 20000)
	require.NoError(t, gdb.Model(&nasi).Update("is_available", false).Error)

	seedCart(t, gdb, user.ID,
		models.CartItem{MenuItemID: nasi.ID, Quantity: 1},
	)

	checkout := NewCheckout(gdb, new(mockGateway), 0)

	_, err := checkout.Aggregate(user.ID)
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))
}

func TestAggregateRejectsVanishedItem(t *testing.T) {
	gdb := newTestDB(t)
	user := seedUser(t, gdb)

	nasi := seedMenuItem(t, gdb, "Nasi Goreng", 20000)
	seedCart(t, gdb, user.ID,
		models.CartItem{MenuItemID: nasi.ID, Quantity: 1},
	)
	require.NoError(t, gdb.Delete(&nasi).Error)

	checkout := NewCheckout(gdb, new(mockGateway), 0)

	_, err := checkout.Aggregate(user.ID)
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))
}

func TestCommitEmptyCartRejected(t *testing.T) {
	gdb := newTestDB(t)
	user := seedUser(t, gdb)

	checkout := NewCheckout(gdb, new(mockGateway), 0)

	_, err := checkout.Commit(context.Background(), user.ID, CommitInput{
		DeliveryAddress: "Jl. Sudirman 1",
	})
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))

	var count int64
	require.NoError(t, gdb.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCommitCreatesOrderAndClearsCart(t *testing.T) {
	gdb := newTestDB(t)
	user := seedUser(t, gdb)

	nasi := seedMenuItem(t, gdb, "Nasi Goreng", 20000)
	sate := seedMenuItem(t, gdb, "Sate Ayam", 15000)

	seedCart(t, gdb, user.ID,
		models.CartItem{MenuItemID: nasi.ID, Quantity: 2},
		models.CartItem{MenuItemID: sate.ID, Quantity: 1},
	)

	checkout := NewCheckout(gdb, new(mockGateway), 0)

	order, err := checkout.Commit(context.Background(), user.ID, CommitInput{
		DeliveryAddress: "Jl. Sudirman 1",
		Notes:           "no cutlery",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(55000), order.TotalAmount)
	assert.Equal(t, types.OrderPending, order.OrderStatus)
	assert.Equal(t, types.PaymentUnpaid, order.PaymentStatus)

	var orders []models.Order
	require.NoError(t, gdb.Preload("Items").Where("user_id = ?", user.ID).Find(&orders).Error)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 2)

	subtotals := []int64{orders[0].Items[0].Subtotal, orders[0].Items[1].Subtotal}
	assert.ElementsMatch(t, []int64{40000, 15000}, subtotals)

	var cartItems int64
	require.NoError(t, gdb.Model(&models.CartItem{}).Count(&cartItems).Error)
	assert.Zero(t, cartItems)

	var carts int64
	require.NoError(t, gdb.Model(&models.Cart{}).Where("user_id = ?", user.ID).Count(&carts).Error)
	assert.Zero(t, carts)
}

func TestCommitVerifiesPaymentAmount(t *testing.T) {
	gdb := newTestDB(t)
	user := seedUser(t, gdb)

	nasi := seedMenuItem(t, gdb, "Nasi Goreng", 20000)
	seedCart(t, gdb, user.ID,
		models.CartItem{MenuItemID: nasi.ID, Quantity: 1},
	)

	gateway := new(mockGateway)
	gateway.On("VerifyPayment", mock.Anything, "pay-123").Return(payments.Verification{
		CorrelationID: "pay-123",
		Status:        "authorized",
		Amount:        20000,
		Raw:           []byte(`{"status":"authorized"}`),
	}, nil)

	checkout := NewCheckout(gdb, gateway, 0)

	order, err := checkout.Commit(context.Background(), user.ID, CommitInput{
		DeliveryAddress: "Jl. Sudirman 1",
		PaymentID:       "pay-123",
	})
	require.NoError(t, err)

	assert.Equal(t, types.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, "pay-123", order.PaymentRef)
	gateway.AssertExpectations(t)
}

func TestCommitRejectsAmountMismatch(t *testing.T) {
	gdb := newTestDB(t)
	user := seedUser(t, gdb)

	nasi := seedMenuItem(t, gdb, "Nasi Goreng", 20000)
	seedCart(t, gdb, user.ID,
		models.CartItem{MenuItemID: nasi.ID, Quantity: 2},
	)

	gateway := new(mockGateway)
	gateway.On("VerifyPayment", mock.Anything, "pay-456").Return(payments.Verification{
		CorrelationID: "pay-456",
		Status:        "authorized",
		Amount:        10000,
	}, nil)

	checkout := NewCheckout(gdb, gateway, 0)

	_, err := checkout.Commit(context.Background(), user.ID, CommitInput{
		DeliveryAddress: "Jl. Sudirman 1",
		PaymentID:       "pay-456",
	})
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))

	var count int64
	require.NoError(t, gdb.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCommitRejectsUnauthorizedPayment(t *testing.T) {
	gdb := newTestDB(t)
	user := seedUser(t, gdb)

	nasi := seedMenuItem(t, gdb, "Nasi Goreng", 20000)
	seedCart(t, gdb, user.ID,
		models.CartItem{MenuItemID: nasi.ID, Quantity: 1},
	)

	gateway := new(mockGateway)
	gateway.On("VerifyPayment", mock.Anything, "pay-789").Return(payments.Verification{
		CorrelationID: "pay-789",
		Status:        "declined",
		Amount:        20000,
	}, nil)

	checkout := NewCheckout(gdb, gateway, 0)

	_, err := checkout.Commit(context.Background(), user.ID, CommitInput{
		DeliveryAddress: "Jl. Sudirman 1",
		PaymentID:       "pay-789",
	})
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))
}

func TestCommitIdempotencyKeyReplay(t *testing.T) {
	gdb := newTestDB(t)
	user := seedUser(t, gdb)

	nasi := seedMenuItem(t, gdb, "Nasi Goreng", 20000)
	seedCart(t, gdb, user.ID,
		models.CartItem{MenuItemID: nasi.ID, Quantity: 1},
	)

	checkout := NewCheckout(gdb, new(mockGateway), 0)

	input := CommitInput{
		DeliveryAddress: "Jl. Sudirman 1",
		IdempotencyKey:  "retry-once",
	}

	first, err := checkout.Commit(context.Background(), user.ID, input)
	require.NoError(t, err)

	// The cart is now empty; a duplicate submission must return the
	// original order instead of failing or double-charging.
	second, err := checkout.Commit(context.Background(), user.ID, input)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, gdb.Model(&models.Order{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCommitIdempotencyKeyScopedToUser(t *testing.T) {
	gdb := newTestDB(t)
	alice := seedUser(t, gdb)

	bob := models.User{
		Name:         "Budi",
		Email:        "budi@example.com",
		PasswordHash: "x",
		Role:         types.RoleUser,
	}
	require.NoError(t, gdb.Create(&bob).Error)

	nasi := seedMenuItem(t, gdb, "Nasi Goreng", 20000)
	seedCart(t, gdb, alice.ID,
		models.CartItem{MenuItemID: nasi.ID, Quantity: 1},
	)
	seedCart(t, gdb, bob.ID,
		models.CartItem{MenuItemID: nasi.ID, Quantity: 2},
	)

	checkout := NewCheckout(gdb, new(mockGateway), 0)

	aliceOrder, err := checkout.Commit(context.Background(), alice.ID, CommitInput{
		DeliveryAddress: "Jl. Melati 9",
		IdempotencyKey:  "shared-key",
	})
	require.NoError(t, err)

	// The same key from another user must never replay Alice's order.
	_, err = checkout.Commit(context.Background(), bob.ID, CommitInput{
		DeliveryAddress: "Jl. Sudirman 1",
		IdempotencyKey:  "shared-key",
	})
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	var orders []models.Order
	require.NoError(t, gdb.Find(&orders).Error)
	require.Len(t, orders, 1)
	assert.Equal(t, alice.ID, orders[0].UserID)
	assert.Equal(t, aliceOrder.ID, orders[0].ID)

	var bobCartItems int64
	require.NoError(t, gdb.Model(&models.CartItem{}).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("carts.user_id = ?", bob.ID).
		Count(&bobCartItems).Error)
	assert.Equal(t, int64(1), bobCartItems)
}

func TestCommitSurfacesIdempotencyLookupFailure(t *testing.T) {
	gdb := newTestDB(t)
	user := seedUser(t, gdb)

	nasi := seedMenuItem(t, gdb, "Nasi Goreng", 20000)
	seedCart(t, gdb, user.ID,
		models.CartItem{MenuItemID: nasi.ID, Quantity: 1},
	)

	// Break the replay lookup; the store error must stop the commit
	// rather than pass for an unused key.
	require.NoError(t, gdb.Migrator().DropTable(&models.Order{}))

	gateway := new(mockGateway)
	checkout := NewCheckout(gdb, gateway, 0)

	_, err := checkout.Commit(context.Background(), user.ID, CommitInput{
		DeliveryAddress: "Jl. Sudirman 1",
		PaymentID:       "pay-000",
		IdempotencyKey:  "retry-once",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
	gateway.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything)
}

func TestCommitRollsBackOnFailure(t *testing.T) {
	gdb := newTestDB(t)
	user := seedUser(t, gdb)

	nasi := seedMenuItem(t, gdb, "Nasi Goreng", 20000)
	seedCart(t, gdb, user.ID,
		models.CartItem{MenuItemID: nasi.ID, Quantity: 1},
	)

	// Force the order-item insert to fail mid-transaction.
	require.NoError(t, gdb.Migrator().DropTable(&models.OrderItem{}))

	checkout := NewCheckout(gdb, new(mockGateway), 0)

	_, err := checkout.Commit(context.Background(), user.ID, CommitInput{
		DeliveryAddress: "Jl. Sudirman 1",
	})
	require.Error(t, err)

	var orders int64
	require.NoError(t, gdb.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)

	var cartItems int64
	require.NoError(t, gdb.Model(&models.CartItem{}).Count(&cartItems).Error)
	assert.Equal(t, int64(1), cartItems)
}

func TestCreateIntentEmptyCart(t *testing.T) {
	gdb := newTestDB(t)
	user := seedUser(t, gdb)

	checkout := NewCheckout(gdb, new(mockGateway), 0)

	_, err := checkout.CreateIntent(context.Background(), user.ID, user.Name, user.Email)
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))
}

func TestCreateIntentGatewayFailure(t *testing.T) {
	gdb := newTestDB(t)
	user := seedUser(t, gdb)

	nasi := seedMenuItem(t, gdb, "Nasi Goreng", 20000)
	seedCart(t, gdb, user.ID,
		models.CartItem{MenuItemID: nasi.ID, Quantity: 1},
	)

	gateway := new(mockGateway)
	gateway.On("CreateIntent", mock.Anything, mock.Anything).
		Return(payments.Intent{}, fmt.Errorf("connection refused"))

	checkout := NewCheckout(gdb, gateway, 0)

	_, err := checkout.CreateIntent(context.Background(), user.ID, user.Name, user.Email)
	assert.Equal(t, apperr.Gateway, apperr.KindOf(err))
}

func TestCreateIntentPassesLiveTotal(t *testing.T) {
	gdb := newTestDB(t)
	user := seedUser(t, gdb)

	nasi := seedMenuItem(t, gdb, "Nasi Goreng", 20000)
	sate := seedMenuItem(t, gdb, "Sate Ayam", 15000)
	seedCart(t, gdb, user.ID,
		models.CartItem{MenuItemID: nasi.ID, Quantity: 2},
		models.CartItem{MenuItemID: sate.ID, Quantity: 1},
	)

	gateway := new(mockGateway)
	gateway.On("CreateIntent", mock.Anything, mock.MatchedBy(func(req payments.IntentRequest) bool {
		return req.Amount == 55000 && req.CorrelationID != ""
	})).Return(payments.Intent{Token: "tok", CorrelationID: "corr", Amount: 55000}, nil)

	checkout := NewCheckout(gdb, gateway, 0)

	intent, err := checkout.CreateIntent(context.Background(), user.ID, user.Name, user.Email)
	require.NoError(t, err)

	assert.Equal(t, "tok", intent.Token)
	assert.Equal(t, int64(55000), intent.Amount)
	gateway.AssertExpectations(t)
}
