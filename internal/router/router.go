package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/feastly-dev/feastly/internal/chat"
	"github.com/feastly-dev/feastly/internal/handlers"
	"github.com/feastly-dev/feastly/internal/middleware"
	"github.com/feastly-dev/feastly/internal/services"
	"github.com/feastly-dev/feastly/internal/types"
)

// Deps are the shared objects handlers need beyond the global DB.
type Deps struct {
	Hub      *chat.Hub
	Checkout *services.Checkout
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register)
			auth.POST("/login", handlers.Login)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
			auth.POST("/logout", middleware.AuthMiddleware(), handlers.Logout)
		}

		// Storefront catalog is public
		api.GET("/categories", handlers.ListCategories)
		api.GET("/menu", handlers.ListMenuItems)
		api.GET("/menu/:menu_id", handlers.GetMenuItem)

		cart := api.Group("/cart", middleware.AuthMiddleware())
		{
			cart.POST("", handlers.AddCartItem)
			cart.GET("", handlers.GetCart(deps.Checkout))
			cart.PATCH("/:item_id", handlers.UpdateCartItem)
			cart.DELETE("/:item_id", handlers.DeleteCartItem)
			cart.DELETE("", handlers.ClearCart)
		}

		orders := api.Group("/orders", middleware.AuthMiddleware())
		{
			orders.POST("/checkout-token", handlers.CreateCheckoutToken(deps.Checkout))
			orders.POST("", handlers.CreateOrder(deps.Checkout))
			orders.GET("", handlers.ListMyOrders)
			orders.GET("/:order_id", handlers.GetMyOrder)
			orders.POST("/:order_id/cancel", handlers.CancelMyOrder)
		}

		chatRoutes := api.Group("/chat", middleware.AuthMiddleware())
		{
			chatRoutes.GET("/conversation", handlers.GetMyConversation)
			chatRoutes.GET("/messages", handlers.ListMyMessages)
			chatRoutes.POST("/messages", handlers.SendMessage(deps.Hub))
			chatRoutes.POST("/read", handlers.MarkMessagesRead)
		}

		api.GET("/ws/chat", middleware.AuthMiddleware(), handlers.ChatWebSocket(deps.Hub))
		api.GET("/ws/admin/chat/:conversation_id",
			middleware.AuthMiddleware(),
			middleware.RequireRole(types.RoleSuperAdmin),
			handlers.AdminChatWebSocket(deps.Hub))

		// Staff console: catalog and order management
		admin := api.Group("/admin", middleware.AuthMiddleware(),
			middleware.RequireRole(types.RoleAdmin, types.RoleSuperAdmin))
		{
			admin.POST("/categories", handlers.CreateCategory)
			admin.PUT("/categories/:category_id", handlers.UpdateCategory)
			admin.DELETE("/categories/:category_id", handlers.DeleteCategory)

			admin.POST("/menu", handlers.CreateMenuItem)
			admin.PUT("/menu/:menu_id", handlers.UpdateMenuItem)
			admin.DELETE("/menu/:menu_id", handlers.DeleteMenuItem)

			admin.GET("/orders", handlers.ListAllOrders)
			admin.PATCH("/orders/:order_id/status", handlers.UpdateOrderStatus)
			admin.PATCH("/orders/:order_id/payment", handlers.UpdatePaymentStatus)
		}

		// Super-admin console: users and support
		super := api.Group("/admin", middleware.AuthMiddleware(),
			middleware.RequireRole(types.RoleSuperAdmin))
		{
			super.GET("/users", handlers.ListUsers)
			super.PATCH("/users/:user_id/role", handlers.UpdateUserRole)
			super.DELETE("/users/:user_id", handlers.DeleteUser)
			super.GET("/users/:user_id/orders", handlers.ListUserOrders)

			super.GET("/conversations", handlers.ListConversations)
			super.GET("/conversations/:conversation_id/messages", handlers.GetConversationMessages)
			super.POST("/conversations/:conversation_id/messages", handlers.ReplyToConversation(deps.Hub))
			super.POST("/conversations/:conversation_id/close", handlers.CloseConversation(deps.Hub))
		}
	}

	return r
}
