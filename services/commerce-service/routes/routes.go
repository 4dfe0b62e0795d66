package routes

import (
	"net/http"

	"github.com/b2bconnect/commerce-backend/services/commerce-service/controllers"
	"github.com/b2bconnect/commerce-backend/services/commerce-service/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers groups every controller the router needs
type Handlers struct {
	Cart          *controllers.CartController
	Orders        *controllers.OrderController
	Notifications *controllers.NotificationController
	Sessions      *controllers.SessionController
	Metrics       http.Handler
	Idempotency   middleware.IdempotencyStore
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "commerce-service"})
	})
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics))
	}
	r.POST("/auth/refresh", h.Sessions.Refresh)

	idem := middleware.Idempotency(h.Idempotency)

	protected := r.Group("/")
	protected.Use(middleware.Auth())

	cart := protected.Group("/cart")
	{
		cart.GET("", h.Cart.GetCart)
		cart.POST("/add", h.Cart.AddItem)
		cart.DELETE("/item/:productId", h.Cart.RemoveItem)
		cart.DELETE("/clear", h.Cart.ClearCart)
		cart.GET("/is-empty", h.Cart.IsEmpty)
		cart.POST("/place-order", idem, h.Cart.PlaceOrder)
	}

	orders := protected.Group("/orders")
	{
		orders.POST("/draft", idem, h.Orders.CreateDraft)
		orders.GET("/draft/:orderId", h.Orders.GetDraft)
		orders.PUT("/draft/:orderId", h.Orders.UpdateDraft)
		orders.POST("/draft-place-order", idem, h.Orders.CommitDraft)
		orders.GET("/sales", h.Orders.ListSales)
		orders.GET("/purchases", h.Orders.ListPurchases)
		orders.GET("/:orderId", h.Orders.GetOrder)
		orders.GET("/:orderId/invoice", h.Orders.GetInvoice)
	}

	placeOrder := protected.Group("/place-order")
	{
		placeOrder.POST("/orders", idem, h.Orders.CreateOrder)
		placeOrder.POST("/customers", h.Orders.AddCustomer)
	}

	protected.GET("/business/:businessId/catalog", h.Orders.GetCatalog)

	notifications := protected.Group("/notifications")
	{
		notifications.POST("", h.Notifications.Create)
		notifications.GET("", h.Notifications.List)
		notifications.GET("/unread-count", h.Notifications.UnreadCount)
		notifications.GET("/order/:orderId", h.Notifications.GetByOrder)
		notifications.PATCH("/:id/read", h.Notifications.MarkRead)
		notifications.POST("/:id/reject", idem, h.Notifications.Reject)
	}
}
