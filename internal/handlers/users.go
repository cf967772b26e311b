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

type UpdateUserRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func ListUsers(ctx *gin.Context) {
	var users []models.User

	if err := db.DB.Order("created_at DESC").Find(&users).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	response := make([]types.UserResponse, 0, len(users))
	for _, user := range users {
		response = append(response, types.UserResponse{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

// UpdateUserRole moves a user between the three roles. A super-admin
// can never change their own role.
func UpdateUserRole(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.Unauthorized, "User not authenticated", err))
		return
	}

	targetID, err := utils.ParamID(ctx, "user_id")

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid user ID", err))
		return
	}

	if targetID == currentUser.ID {
		httpx.Error(ctx, apperr.New(apperr.BadRequest, "Cannot change your own role"))
		return
	}

	var req UpdateUserRoleRequest

	if err := ctx.BindJSON(&req); err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid request", err))
		return
	}

	role, err := types.ParseRole(req.Role)

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Unknown role", err))
		return
	}

	var user models.User

	if err := db.DB.First(&user, targetID).Error; err != nil {
		httpx.Error(ctx, apperr.FromStore(err, "User not found"))
		return
	}

	user.Role = role

	if err := db.DB.Save(&user).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
		"actor":   currentUser.ID,
	}).Info("user role changed")

	ctx.JSON(http.StatusOK, types.UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	})
}

// DeleteUser removes an account. Never the actor themselves, and never
// another super-admin.
func DeleteUser(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.Unauthorized, "User not authenticated", err))
		return
	}

	targetID, err := utils.ParamID(ctx, "user_id")

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid user ID", err))
		return
	}

	if targetID == currentUser.ID {
		httpx.Error(ctx, apperr.New(apperr.BadRequest, "Cannot delete your own account"))
		return
	}

	var user models.User

	if err := db.DB.First(&user, targetID).Error; err != nil {
		httpx.Error(ctx, apperr.FromStore(err, "User not found"))
		return
	}

	if user.Role == types.RoleSuperAdmin {
		httpx.Error(ctx, apperr.New(apperr.Forbidden, "Cannot delete a super-admin account"))
		return
	}

	if err := db.DB.Delete(&user).Error; err != nil {
		httpx.Error(ctx, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"user_id": targetID,
		"actor":   currentUser.ID,
	}).Info("user deleted")

	ctx.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

func ListUserOrders(ctx *gin.Context) {
	targetID, err := utils.ParamID(ctx, "user_id")

	if err != nil {
		httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid user ID", err))
		return
	}

	var orders []models.Order

	if err := db.DB.Preload("Items.MenuItem").
		Where("user_id = ?", targetID).
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
