package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feastly-dev/feastly/db"
	"github.com/feastly-dev/feastly/internal/apperr"
	"github.com/feastly-dev/feastly/internal/httpx"
	"github.com/feastly-dev/feastly/internal/models"
	"github.com/feastly-dev/feastly/internal/services"
	"github.com/feastly-dev/feastly/internal/types"
	"github.com/feastly-dev/feastly/internal/utils"
)

type CreateOrderRequest struct {
	DeliveryAddress string `json:"delivery_address" binding:"required"`
	Notes           string `json:"notes"`
	PaymentID       string `json:"payment_id"`
	IdempotencyKey  string `json:"idempotency_key"`
}

func orderResponse(order models.Order, withItems bool) types.OrderResponse {
	response := types.OrderResponse{
		ID:              order.ID,
		OrderStatus:     order.OrderStatus,
		PaymentStatus:   order.PaymentStatus,
		TotalAmount:     order.TotalAmount,
		ServiceFee:      order.ServiceFee,
		DeliveryAddress: order.DeliveryAddress,
		Notes:           order.Notes,
		PaymentRef:      order.PaymentRef,
		CreatedAt:       order.CreatedAt,
	}

	if withItems {
		response.Items = make([]types.OrderItemResponse, 0, len(order.Items))
		for _, item := range order.Items {
			response.Items = append(response.Items, types.OrderItemResponse{
				ID:         item.ID,
				MenuItemID: item.MenuItemID,
				Name:       item.MenuItem.Name,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
				Subtotal:   item.Subtotal,
			})
		}
	}

	return response
}

// CreateCheckoutToken asks the gateway for a payment token against the
// live cart total.
func CreateCheckoutToken(checkout *services.Checkout) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		currentUser, err := utils.GetCurrentUser(ctx)

		if err != nil {
			httpx.Error(ctx, apperr.Wrap(apperr.Unauthorized, "User not authenticated", err))
			return
		}

		intent, err := checkout.CreateIntent(ctx.Request.Context(), currentUser.ID, currentUser.Name, currentUser.Email)

		if err != nil {
			httpx.Error(ctx, err)
			return
		}

		ctx.JSON(http.StatusCreated, gin.H{
			"token":          intent.Token,
			"correlation_id": intent.CorrelationID,
			"total_amount":   intent.Amount,
		})
	}
}

// CreateOrder commits the cart into an order. Paid checkouts carry the
// correlation id from CreateCheckoutToken; without one the order is
// created unpaid (cash on delivery).
func CreateOrder(checkout *services.Checkout) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, err := utils.GetCurrentUserID(ctx)

		if err != nil {
			httpx.Error(ctx, apperr.Wrap(apperr.Unauthorized, "User not authenticated", err))
			return
		}

		var req CreateOrderRequest

		if err := ctx.BindJSON(&req); err != nil {
			httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid request", err))
			return
		}

		order, err := checkout.Commit(ctx.Request.Context(), userID, services.CommitInput{
			DeliveryAddress: req.DeliveryAddress,
			Notes:           req.Notes,
			PaymentID:       req.PaymentID,
			IdempotencyKey:  req.IdempotencyKey,
		})

		if err != nil {
			httpx.Error(ctx, err)
			return
		}

		ctx.JSON(http.StatusCreated, gin.H{
			"order_id":       order.ID,
			"payment_id":     order.PaymentRef,
			"total_amount":   order.TotalAmount,
			"order_status":   order.OrderStatus,
			"payment_status": order.PaymentStatus,
		})
	}
}

func ListMyOrders(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.Unauthorized, "User not authenticated", err))
		return
	}

	var orders []models.Order

	if err := db.DB.Preload("Items.MenuItem").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	response := make([]types.OrderResponse, 0, len(orders))
	for _, order := range orders {
		response = append(response, orderResponse(order, true))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetMyOrder(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.Unauthorized, "User not authenticated", err))
		return
	}

	orderID, err := utils.ParamID(ctx, "order_id")

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid order ID", err))
		return
	}

	var order models.Order

	if err := db.DB.Preload("Items.MenuItem").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error; err != nil {
		httpx.Error(ctx, apperr.FromStore(err, "Order not found"))
		return
	}

	ctx.JSON(http.StatusOK, orderResponse(order, true))
}

// CancelMyOrder lets a customer back out while the kitchen has not
// started: pending only. An unpaid payment is cancelled with it.
func CancelMyOrder(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.Unauthorized, "User not authenticated", err))
		return
	}

	orderID, err := utils.ParamID(ctx, "order_id")

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid order ID", err))
		return
	}

	var order models.Order

	if err := db.DB.Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error; err != nil {
		httpx.Error(ctx, apperr.FromStore(err, "Order not found"))
		return
	}

	if order.OrderStatus != types.OrderPending {
		httpx.Error(ctx, apperr.New(apperr.BadRequest, "Order can no longer be cancelled"))
		return
	}

	order.OrderStatus = types.OrderCancelled
	if order.PaymentStatus == types.PaymentUnpaid {
		order.PaymentStatus = types.PaymentCancelled
	}

	if err := db.DB.Save(&order).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, orderResponse(order, false))
}
