package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feastly-dev/feastly/db"
	"github.com/feastly-dev/feastly/internal/apperr"
	"github.com/feastly-dev/feastly/internal/httpx"
	"github.com/feastly-dev/feastly/internal/models"
	"github.com/feastly-dev/feastly/internal/utils"
)

type MenuItemRequest struct {
	CategoryID  uint   `json:"category_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       int64  `json:"price" binding:"min=0"`
	ImageURL    string `json:"image_url"`
	IsAvailable *bool  `json:"is_available"`
	IsSpicy     bool   `json:"is_spicy"`
}

type MenuItemResponse struct {
	ID          uint   `json:"id"`
	CategoryID  uint   `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	ImageURL    string `json:"image_url,omitempty"`
	IsAvailable bool   `json:"is_available"`
	IsSpicy     bool   `json:"is_spicy"`
}

func menuItemResponse(item models.MenuItem) MenuItemResponse {
	return MenuItemResponse{
		ID:          item.ID,
		CategoryID:  item.CategoryID,
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price,
		ImageURL:    item.ImageURL,
		IsAvailable: item.IsAvailable,
		IsSpicy:     item.IsSpicy,
	}
}

// ListMenuItems is the storefront listing: available items only,
// optionally filtered by ?category_id=.
func ListMenuItems(ctx *gin.Context) {
	query := db.DB.Where("is_available = ?", true)

	if categoryID := ctx.Query("category_id"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}

	var items []models.MenuItem

	if err := query.Order("name").Find(&items).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	response := make([]MenuItemResponse, 0, len(items))
	for _, item := range items {
		response = append(response, menuItemResponse(item))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetMenuItem(ctx *gin.Context) {
	menuID, err := utils.ParamID(ctx, "menu_id")

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid menu item ID", err))
		return
	}

	var item models.MenuItem

	if err := db.DB.First(&item, menuID).Error; err != nil {
		httpx.Error(ctx, apperr.FromStore(err, "Menu item not found"))
		return
	}

	ctx.JSON(http.StatusOK, menuItemResponse(item))
}

func CreateMenuItem(ctx *gin.Context) {
	var req MenuItemRequest

	if err := ctx.BindJSON(&req); err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid request", err))
		return
	}

	var category models.Category

	if err := db.DB.First(&category, req.CategoryID).Error; err != nil {
		httpx.Error(ctx, apperr.FromStore(err, "Category not found"))
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	item := models.MenuItem{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		IsAvailable: available,
		IsSpicy:     req.IsSpicy,
	}

	if err := db.DB.Create(&item).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, menuItemResponse(item))
}

func UpdateMenuItem(ctx *gin.Context) {
	menuID, err := utils.ParamID(ctx, "menu_id")

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid menu item ID", err))
		return
	}

	var req MenuItemRequest

	if err := ctx.BindJSON(&req); err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid request", err))
		return
	}

	var item models.MenuItem

	if err := db.DB.First(&item, menuID).Error; err != nil {
		httpx.Error(ctx, apperr.FromStore(err, "Menu item not found"))
		return
	}

	if req.CategoryID != item.CategoryID {
		var category models.Category
		if err := db.DB.First(&category, req.CategoryID).Error; err != nil {
			httpx.Error(ctx, apperr.FromStore(err, "Category not found"))
			return
		}
	}

	item.CategoryID = req.CategoryID
	item.Name = req.Name
	item.Description = req.Description
	item.Price = req.Price
	item.ImageURL = req.ImageURL
	item.IsSpicy = req.IsSpicy
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	if err := db.DB.Save(&item).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, menuItemResponse(item))
}

func DeleteMenuItem(ctx *gin.Context) {
	menuID, err := utils.ParamID(ctx, "menu_id")

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid menu item ID", err))
		return
	}

	var item models.MenuItem

	if err := db.DB.First(&item, menuID).Error; err != nil {
		httpx.Error(ctx, apperr.FromStore(err, "Menu item not found"))
		return
	}

	if err := db.DB.Delete(&item).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
