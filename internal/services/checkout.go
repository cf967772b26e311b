// Package services holds the checkout sequencer: cart aggregation,
// payment-intent requests and the transactional order commit.
package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/feastly-dev/feastly/internal/apperr"
	"github.com/feastly-dev/feastly/internal/models"
	"github.com/feastly-dev/feastly/internal/payments"
	"github.com/feastly-dev/feastly/internal/types"
)

type Checkout struct {
	db         *gorm.DB
	gateway    payments.Gateway
	serviceFee int64
}

func NewCheckout(db *gorm.DB, gateway payments.Gateway, serviceFee int64) *Checkout {
	return &Checkout{db: db, gateway: gateway, serviceFee: serviceFee}
}

type CartLine struct {
	CartItemID   uint
	MenuItemID   uint
	Name         string
	Quantity     int
	UnitPrice    int64
	Subtotal     int64
	Instructions string
}

type CartSummary struct {
	Lines      []CartLine
	Subtotal   int64
	ServiceFee int64
	Total      int64
}

func (s CartSummary) Empty() bool { return len(s.Lines) == 0 }

type CommitInput struct {
	DeliveryAddress string
	Notes           string
	PaymentID       string
	IdempotencyKey  string
}

// Aggregate reads the user's cart and computes per-line subtotals and
// the grand total. Read-only. A line whose menu item has vanished or
// been marked unavailable rejects the whole aggregation; a silently
// zero-priced line would under-charge.
func (s *Checkout) Aggregate(userID uint) (CartSummary, error) {
	_, summary, err := aggregate(s.db, userID, s.serviceFee)
	return summary, err
}

func aggregate(db *gorm.DB, userID uint, serviceFee int64) (models.Cart, CartSummary, error) {
	var cart models.Cart

	err := db.Preload("Items.MenuItem").Where("user_id = ?", userID).First(&cart).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Cart{}, CartSummary{}, nil
	}
	if err != nil {
		return models.Cart{}, CartSummary{}, err
	}

	summary := CartSummary{}

	for _, item := range cart.Items {
		if item.MenuItem.ID == 0 {
			return models.Cart{}, CartSummary{}, apperr.New(apperr.BadRequest,
				"An item in your cart is no longer on the menu")
		}
		if !item.MenuItem.IsAvailable {
			return models.Cart{}, CartSummary{}, apperr.New(apperr.BadRequest,
				"An item in your cart is no longer available")
		}

		line := CartLine{
			CartItemID:   item.ID,
			MenuItemID:   item.MenuItemID,
			Name:         item.MenuItem.Name,
			Quantity:     item.Quantity,
			UnitPrice:    item.MenuItem.Price,
			Subtotal:     item.MenuItem.Price * int64(item.Quantity),
			Instructions: item.Instructions,
		}

		summary.Lines = append(summary.Lines, line)
		summary.Subtotal += line.Subtotal
	}

	if summary.Empty() {
		return cart, summary, nil
	}

	summary.ServiceFee = serviceFee
	summary.Total = summary.Subtotal + serviceFee

	return cart, summary, nil
}

// CreateIntent computes the live total and asks the gateway for a
// client-usable payment token. The correlation id is generated before
// the gateway call so the same id matches the later confirmation.
func (s *Checkout) CreateIntent(ctx context.Context, userID uint, name, email string) (payments.Intent, error) {
	summary, err := s.Aggregate(userID)
	if err != nil {
		return payments.Intent{}, err
	}

	if summary.Empty() {
		return payments.Intent{}, apperr.New(apperr.BadRequest, "Cart is empty")
	}

	correlationID := payments.NewCorrelationID()

	intent, err := s.gateway.CreateIntent(ctx, payments.IntentRequest{
		Amount:        summary.Total,
		CorrelationID: correlationID,
		CustomerName:  name,
		CustomerEmail: email,
	})
	if err != nil {
		return payments.Intent{}, apperr.Wrap(apperr.Gateway, "Payment gateway unavailable", err)
	}

	return intent, nil
}

// Commit turns the user's cart into an order. Lines and totals are
// always recomputed live from the store; a supplied payment id only
// proves that a payment was authorized for exactly that total. The
// order row, every order-item row and the cart teardown happen in one
// transaction, so a failure anywhere leaves pre-commit state untouched.
func (s *Checkout) Commit(ctx context.Context, userID uint, in CommitInput) (*models.Order, error) {
	key := in.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	} else {
		existing, err := s.findByIdempotencyKey(userID, key)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	summary, err := s.Aggregate(userID)
	if err != nil {
		return nil, err
	}
	if summary.Empty() {
		return nil, apperr.New(apperr.BadRequest, "Cart is empty")
	}

	paymentStatus := types.PaymentUnpaid
	var snapshot []byte
	var verifiedAmount int64

	if in.PaymentID != "" {
		verification, err := s.gateway.VerifyPayment(ctx, in.PaymentID)
		if err != nil {
			return nil, apperr.Wrap(apperr.Gateway, "Could not verify payment", err)
		}
		if !verification.Authorized() {
			return nil, apperr.New(apperr.BadRequest, "Payment was not authorized")
		}
		if verification.Amount != summary.Total {
			return nil, apperr.New(apperr.BadRequest, "Payment amount does not match order total")
		}
		paymentStatus = types.PaymentPaid
		snapshot = verification.Raw
		verifiedAmount = verification.Amount
	}

	var order *models.Order

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		// Recompute inside the transaction; the cart may have changed
		// between aggregation and commit.
		cart, summary, err := aggregate(tx, userID, s.serviceFee)
		if err != nil {
			return err
		}
		if summary.Empty() {
			return apperr.New(apperr.BadRequest, "Cart is empty")
		}

		// The cart may have changed since the payment was authorized;
		// a paid amount that no longer matches aborts the commit.
		if paymentStatus == types.PaymentPaid && summary.Total != verifiedAmount {
			return apperr.New(apperr.BadRequest, "Payment amount does not match order total")
		}

		items := make([]models.OrderItem, 0, len(summary.Lines))
		for _, line := range summary.Lines {
			items = append(items, models.OrderItem{
				MenuItemID: line.MenuItemID,
				Quantity:   line.Quantity,
				UnitPrice:  line.UnitPrice,
				Subtotal:   line.Subtotal,
			})
		}

		order = &models.Order{
			UserID:          userID,
			OrderStatus:     types.OrderPending,
			PaymentStatus:   paymentStatus,
			TotalAmount:     summary.Total,
			ServiceFee:      summary.ServiceFee,
			DeliveryAddress: in.DeliveryAddress,
			Notes:           in.Notes,
			PaymentRef:      in.PaymentID,
			IdempotencyKey:  key,
			GatewaySnapshot: snapshot,
			Items:           items,
		}

		if err := tx.Create(order).Error; err != nil {
			return err
		}

		// Hard delete; a soft-deleted cart row would collide with the
		// unique user_id index when the next cart is opened.
		if err := tx.Unscoped().Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Delete(&models.Cart{}, cart.ID).Error; err != nil {
			return err
		}

		return nil
	})

	if txErr != nil {
		// A concurrent replay of the same key loses the race on the
		// unique index; the winner's order is the result. A winner
		// belonging to someone else means the key itself is taken.
		if errors.Is(txErr, gorm.ErrDuplicatedKey) {
			existing, err := s.findByIdempotencyKey(userID, key)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.New(apperr.Conflict, "Idempotency key is already in use")
			}
			if err != nil {
				return nil, err
			}
			return existing, nil
		}
		return nil, txErr
	}

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  userID,
		"total":    order.TotalAmount,
	}).Info("order committed")

	return order, nil
}

// findByIdempotencyKey is scoped to the committing user; a key already
// used by someone else must never hand their order back.
func (s *Checkout) findByIdempotencyKey(userID uint, key string) (*models.Order, error) {
	var existing models.Order
	err := s.db.Preload("Items").
		Where("idempotency_key = ? AND user_id = ?", key, userID).
		First(&existing).Error
	if err != nil {
		return nil, err
	}
	return &existing, nil
}
