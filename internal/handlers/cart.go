package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/feastly-dev/feastly/db"
	"github.com/feastly-dev/feastly/internal/apperr"
	"github.com/feastly-dev/feastly/internal/httpx"
	"github.com/feastly-dev/feastly/internal/models"
	"github.com/feastly-dev/feastly/internal/services"
	"github.com/feastly-dev/feastly/internal/types"
	"github.com/feastly-dev/feastly/internal/utils"
)

type AddCartItemRequest struct {
	MenuItemID   uint   `json:"menu_item_id" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required,min=1"`
	Instructions string `json:"instructions"`
}

type UpdateCartItemRequest struct {
	Quantity     int    `json:"quantity" binding:"required,min=1"`
	Instructions string `json:"instructions"`
}

// AddCartItem upserts a line into the user's single open cart: a line
// for the same menu item has its quantity incremented (200), a new
// line is created (201).
func AddCartItem(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.Unauthorized, "User not authenticated", err))
		return
	}

	var req AddCartItemRequest

	if err := ctx.BindJSON(&req); err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid request", err))
		return
	}

	var menuItem models.MenuItem

	if err := db.DB.First(&menuItem, req.MenuItemID).Error; err != nil {
		httpx.Error(ctx, apperr.FromStore(err, "Menu item not found"))
		return
	}

	if !menuItem.IsAvailable {
		httpx.Error(ctx, apperr.New(apperr.BadRequest, "Menu item is not available"))
		return
	}

	var cart models.Cart

	if err := db.DB.Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	var line models.CartItem

	err = db.DB.Where("cart_id = ? AND menu_item_id = ?", cart.ID, req.MenuItemID).First(&line).Error

	if err == nil {
		line.Quantity += req.Quantity
		if req.Instructions != "" {
			line.Instructions = req.Instructions
		}

		if err := db.DB.Save(&line).Error; err != nil {
			httpx.Error(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, gin.H{"cart_item_id": line.ID, "quantity": line.Quantity})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.Error(ctx, err)
		return
	}

	line = models.CartItem{
		CartID:       cart.ID,
		MenuItemID:   req.MenuItemID,
		Quantity:     req.Quantity,
		Instructions: req.Instructions,
	}

	if err := db.DB.Create(&line).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"cart_item_id": line.ID, "quantity": line.Quantity})
}

// GetCart returns the aggregated cart: lines with live prices plus the
// running total the checkout would charge.
func GetCart(checkout *services.Checkout) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, err := utils.GetCurrentUserID(ctx)

		if err != nil {
			httpx.Error(ctx, apperr.Wrap(apperr.Unauthorized, "User not authenticated", err))
			return
		}

		summary, err := checkout.Aggregate(userID)

		if err != nil {
			httpx.Error(ctx, err)
			return
		}

		response := types.CartResponse{
			Items:      make([]types.CartLineResponse, 0, len(summary.Lines)),
			Subtotal:   summary.Subtotal,
			ServiceFee: summary.ServiceFee,
			Total:      summary.Total,
		}

		for _, line := range summary.Lines {
			response.Items = append(response.Items, types.CartLineResponse{
				ID:           line.CartItemID,
				MenuItemID:   line.MenuItemID,
				Name:         line.Name,
				Quantity:     line.Quantity,
				UnitPrice:    line.UnitPrice,
				Subtotal:     line.Subtotal,
				Instructions: line.Instructions,
			})
		}

		ctx.JSON(http.StatusOK, response)
	}
}

func findOwnedCartItem(userID, itemID uint) (models.CartItem, error) {
	var line models.CartItem

	err := db.DB.
		Joins("JOIN carts ON carts.id = cart_items.cart_id AND carts.deleted_at IS NULL").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, userID).
		First(&line).Error

	return line, err
}

func UpdateCartItem(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.Unauthorized, "User not authenticated", err))
		return
	}

	itemID, err := utils.ParamID(ctx, "item_id")

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid cart item ID", err))
		return
	}

	var req UpdateCartItemRequest

	if err := ctx.BindJSON(&req); err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid request", err))
		return
	}

	line, err := findOwnedCartItem(userID, itemID)

	if err != nil {
		httpx.Error(ctx, apperr.FromStore(err, "Cart item not found"))
		return
	}

	line.Quantity = req.Quantity
	line.Instructions = req.Instructions

	if err := db.DB.Save(&line).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"cart_item_id": line.ID, "quantity": line.Quantity})
}

func DeleteCartItem(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.Unauthorized, "User not authenticated", err))
		return
	}

	itemID, err := utils.ParamID(ctx, "item_id")

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid cart item ID", err))
		return
	}

	line, err := findOwnedCartItem(userID, itemID)

	if err != nil {
		httpx.Error(ctx, apperr.FromStore(err, "Cart item not found"))
		return
	}

	// Hard delete so re-adding the same menu item does not collide
	// with the soft-deleted row on the cart/menu-item unique index.
	if err := db.DB.Unscoped().Delete(&line).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Cart item removed"})
}

func ClearCart(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.Unauthorized, "User not authenticated", err))
		return
	}

	var cart models.Cart

	err = db.DB.Where("user_id = ?", userID).First(&cart).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusOK, gin.H{"message": "Cart is already empty"})
		return
	}

	if err != nil {
		httpx.Error(ctx, err)
		return
	}

	txErr := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&cart).Error
	})

	if txErr != nil {
		httpx.Error(ctx, txErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
