package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/feastly-dev/feastly/db"
	"github.com/feastly-dev/feastly/internal/apperr"
	"github.com/feastly-dev/feastly/internal/httpx"
	"github.com/feastly-dev/feastly/internal/models"
	"github.com/feastly-dev/feastly/internal/types"
	"github.com/feastly-dev/feastly/internal/utils"
)

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type UpdatePaymentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListAllOrders is the staff console listing, newest first, optionally
// filtered by ?status=.
func ListAllOrders(ctx *gin.Context) {
	query := db.DB.Preload("Items.MenuItem").Preload("User")

	if status := ctx.Query("status"); status != "" {
		if _, ok := types.ParseOrderStatus(status); !ok {
			httpx.Error(ctx, apperr.New(apperr.BadRequest, "Unknown order status"))
			return
		}
		query = query.Where("order_status = ?", status)
	}

	var orders []models.Order

	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	response := make([]types.OrderResponse, 0, len(orders))
	for _, order := range orders {
		response = append(response, orderResponse(order, true))
	}

	ctx.JSON(http.StatusOK, response)
}

// UpdateOrderStatus walks the workflow machine one validated step.
// Completing requires the order to be paid; cancelling an unpaid order
// cancels its payment with it.
func UpdateOrderStatus(ctx *gin.Context) {
	orderID, err := utils.ParamID(ctx, "order_id")

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid order ID", err))
		return
	}

	var req UpdateOrderStatusRequest

	if err := ctx.BindJSON(&req); err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid request", err))
		return
	}

	next, ok := types.ParseOrderStatus(req.Status)

	if !ok {
		httpx.Error(ctx, apperr.New(apperr.BadRequest, "Unknown order status"))
		return
	}

	var order models.Order

	if err := db.DB.First(&order, orderID).Error; err != nil {
		httpx.Error(ctx, apperr.FromStore(err, "Order not found"))
		return
	}

	if !order.OrderStatus.CanTransitionTo(next) {
		httpx.Error(ctx, apperr.New(apperr.BadRequest, "Invalid status transition"))
		return
	}

	if next == types.OrderCompleted && order.PaymentStatus != types.PaymentPaid {
		httpx.Error(ctx, apperr.New(apperr.BadRequest, "Order cannot complete while unpaid"))
		return
	}

	order.OrderStatus = next
	if next == types.OrderCancelled && order.PaymentStatus == types.PaymentUnpaid {
		order.PaymentStatus = types.PaymentCancelled
	}

	if err := db.DB.Save(&order).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"status":   order.OrderStatus,
	}).Info("order status updated")

	ctx.JSON(http.StatusOK, orderResponse(order, false))
}

func UpdatePaymentStatus(ctx *gin.Context) {
	orderID, err := utils.ParamID(ctx, "order_id")

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid order ID", err))
		return
	}

	var req UpdatePaymentStatusRequest

	if err := ctx.BindJSON(&req); err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid request", err))
		return
	}

	status, ok := types.ParsePaymentStatus(req.Status)

	if !ok {
		httpx.Error(ctx, apperr.New(apperr.BadRequest, "Unknown payment status"))
		return
	}

	var order models.Order

	if err := db.DB.First(&order, orderID).Error; err != nil {
		httpx.Error(ctx, apperr.FromStore(err, "Order not found"))
		return
	}

	order.PaymentStatus = status

	if err := db.DB.Save(&order).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, orderResponse(order, false))
}
