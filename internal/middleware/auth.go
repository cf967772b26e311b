package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/feastly-dev/feastly/db"
	"github.com/feastly-dev/feastly/internal/apperr"
	"github.com/feastly-dev/feastly/internal/auth"
	"github.com/feastly-dev/feastly/internal/httpx"
	"github.com/feastly-dev/feastly/internal/models"
	"github.com/feastly-dev/feastly/internal/types"
)

type AuthenticatedUser struct {
	ID    uint       `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  types.Role `json:"role"`
}

// Every not-authenticated cause (missing header, bad scheme, invalid or
// expired token, vanished user) produces this same response so callers
// cannot probe which one it was.
const notAuthenticatedMsg = "Invalid or missing authentication token"

func AuthMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")

		if authHeader == "" {
			httpx.Error(ctx, apperr.New(apperr.Unauthorized, notAuthenticatedMsg))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)

		if len(parts) != 2 || parts[0] != "Bearer" {
			httpx.Error(ctx, apperr.New(apperr.Unauthorized, notAuthenticatedMsg))
			return
		}

		token, err := auth.VerifyJWT(parts[1])

		if err != nil || !token.Valid {
			httpx.Error(ctx, apperr.New(apperr.Unauthorized, notAuthenticatedMsg))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)

		if !ok {
			httpx.Error(ctx, apperr.New(apperr.Unauthorized, notAuthenticatedMsg))
			return
		}

		userIDFloat, ok := claims["user_id"].(float64)

		if !ok {
			httpx.Error(ctx, apperr.New(apperr.Unauthorized, notAuthenticatedMsg))
			return
		}

		var user models.User

		if err := db.DB.Where("id = ?", uint(userIDFloat)).First(&user).Error; err != nil {
			httpx.Error(ctx, apperr.New(apperr.Unauthorized, notAuthenticatedMsg))
			return
		}

		// Role comes from the user row, not the token, so a demotion
		// takes effect before the token expires.
		ctx.Set(types.ContextUserKey, AuthenticatedUser{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		})
		ctx.Next()
	}
}

// RequireRole is the stricter gate layered after AuthMiddleware. A valid
// identity with a role outside allowedRoles is Forbidden, not
// Unauthorized.
func RequireRole(allowedRoles ...types.Role) gin.HandlerFunc {
	allowed := make(map[types.Role]bool)
	for _, role := range allowedRoles {
		allowed[role] = true
	}

	return func(ctx *gin.Context) {
		value, exists := ctx.Get(types.ContextUserKey)

		if !exists {
			httpx.Error(ctx, apperr.New(apperr.Unauthorized, notAuthenticatedMsg))
			return
		}

		user, ok := value.(AuthenticatedUser)

		if !ok || !allowed[user.Role] {
			httpx.Error(ctx, apperr.New(apperr.Forbidden, "Insufficient role"))
			return
		}

		ctx.Next()
	}
}
