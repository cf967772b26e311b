package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/feastly-dev/feastly/db"
	"github.com/feastly-dev/feastly/internal/auth"
	"github.com/feastly-dev/feastly/internal/models"
	"github.com/feastly-dev/feastly/internal/types"
)

func setupAuthTest(t *testing.T) models.User {
	t.Helper()

	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	require.NoError(t, auth.InitJWTSecret())

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&models.User{}))
	db.DB = gdb

	user := models.User{
		Name:         "Ayu",
		Email:        "ayu@example.com",
		PasswordHash: "x",
		Role:         types.RoleUser,
	}
	require.NoError(t, gdb.Create(&user).Error)
	return user
}

func newProtectedRouter(extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	chain := append([]gin.HandlerFunc{AuthMiddleware()}, extra...)
	chain = append(chain, func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/protected", chain...)
	return r
}

func doRequest(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func messageOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["message"]
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	user := setupAuthTest(t)
	r := newProtectedRouter()

	token, err := auth.GenerateJWT(user.ID, user.Email, user.Role)
	require.NoError(t, err)

	w := doRequest(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}

// Missing header and expired token must be indistinguishable from the
// response alone.
func TestAuthMiddlewareUniformUnauthorized(t *testing.T) {
	user := setupAuthTest(t)
	r := newProtectedRouter()

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": float64(user.ID),
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})
	expiredToken, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noHeader := doRequest(r, "")
	expiredResp := doRequest(r, "Bearer "+expiredToken)
	badScheme := doRequest(r, "Basic abc")

	assert.Equal(t, http.StatusUnauthorized, noHeader.Code)
	assert.Equal(t, http.StatusUnauthorized, expiredResp.Code)
	assert.Equal(t, http.StatusUnauthorized, badScheme.Code)

	assert.Equal(t, messageOf(t, noHeader), messageOf(t, expiredResp))
	assert.Equal(t, messageOf(t, noHeader), messageOf(t, badScheme))
}

func TestAuthMiddlewareRejectsVanishedUser(t *testing.T) {
	user := setupAuthTest(t)
	r := newProtectedRouter()

	token, err := auth.GenerateJWT(user.ID, user.Email, user.Role)
	require.NoError(t, err)

	require.NoError(t, db.DB.Delete(&user).Error)

	w := doRequest(r, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoleForbidsInsufficientRole(t *testing.T) {
	user := setupAuthTest(t)
	r := newProtectedRouter(RequireRole(types.RoleAdmin, types.RoleSuperAdmin))

	token, err := auth.GenerateJWT(user.ID, user.Email, user.Role)
	require.NoError(t, err)

	w := doRequest(r, "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRoleUsesStoredRoleNotTokenClaim(t *testing.T) {
	user := setupAuthTest(t)
	r := newProtectedRouter(RequireRole(types.RoleAdmin))

	// Token minted while the user claimed admin; the row says user.
	token, err := auth.GenerateJWT(user.ID, user.Email, types.RoleAdmin)
	require.NoError(t, err)

	w := doRequest(r, "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	require.NoError(t, db.DB.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("role", types.RoleAdmin).Error)

	w = doRequest(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}
