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
	"github.com/feastly-dev/feastly/internal/utils"
)

type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CategoryResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func ListCategories(ctx *gin.Context) {
	var categories []models.Category

	if err := db.DB.Order("name").Find(&categories).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	response := make([]CategoryResponse, 0, len(categories))
	for _, category := range categories {
		response = append(response, CategoryResponse{
			ID:          category.ID,
			Name:        category.Name,
			Description: category.Description,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

func CreateCategory(ctx *gin.Context) {
	var req CategoryRequest

	if err := ctx.BindJSON(&req); err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid request", err))
		return
	}

	category := models.Category{
		Name:        req.Name,
		Description: req.Description,
	}

	if err := db.DB.Create(&category).Error; err != nil {
		httpx.Error(ctx, apperr.FromStore(err, "Category not found"))
		return
	}

	ctx.JSON(http.StatusCreated, CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
	})
}

func UpdateCategory(ctx *gin.Context) {
	categoryID, err := utils.ParamID(ctx, "category_id")

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid category ID", err))
		return
	}

	var req CategoryRequest

	if err := ctx.BindJSON(&req); err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid request", err))
		return
	}

	var category models.Category

	if err := db.DB.First(&category, categoryID).Error; err != nil {
		httpx.Error(ctx, apperr.FromStore(err, "Category not found"))
		return
	}

	category.Name = req.Name
	category.Description = req.Description

	if err := db.DB.Save(&category).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
	})
}

// DeleteCategory blocks while menu items still reference the category;
// cascading would destroy catalog data and orphaning breaks the
// required-category invariant on menu items.
func DeleteCategory(ctx *gin.Context) {
	categoryID, err := utils.ParamID(ctx, "category_id")

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid category ID", err))
		return
	}

	var category models.Category

	if err := db.DB.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.Error(ctx, apperr.New(apperr.NotFound, "Category not found"))
		} else {
			httpx.Error(ctx, err)
		}
		return
	}

	var itemCount int64

	if err := db.DB.Model(&models.MenuItem{}).Where("category_id = ?", categoryID).Count(&itemCount).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	if itemCount > 0 {
		httpx.Error(ctx, apperr.New(apperr.Conflict, "Category still has menu items"))
		return
	}

	if err := db.DB.Delete(&category).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
