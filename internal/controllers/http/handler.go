package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"trinket-service/internal/services"
)

type Handler struct {
	orders  *services.OrderService
	catalog *services.CatalogService
	reviews *services.ReviewService
	users   *services.UserService
}

func NewHandler(orders *services.OrderService, catalog *services.CatalogService, reviews *services.ReviewService, users *services.UserService) *Handler {
	return &Handler{orders: orders, catalog: catalog, reviews: reviews, users: users}
}

// NewRouter builds the gin engine. orderLimiter guards order placement and
// may be nil.
func NewRouter(h *Handler, orderLimiter gin.HandlerFunc) *gin.Engine {
	binding.EnableDecoderDisallowUnknownFields = true

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), Logger())
	h.RegisterRoutes(r, orderLimiter)
	return r
}

func (h *Handler) RegisterRoutes(r *gin.Engine, orderLimiter gin.HandlerFunc) {
	r.GET("/health", h.Health)

	placeOrder := []gin.HandlerFunc{h.CreateOrder}
	if orderLimiter != nil {
		placeOrder = append([]gin.HandlerFunc{orderLimiter}, placeOrder...)
	}

	orders := r.Group("/orders")
	orders.POST("", placeOrder...)
	orders.GET("", h.ListOrders)
	orders.GET("/:id", h.GetOrder)
	orders.PUT("/:id/status", h.UpdateOrderStatus)
	orders.POST("/:id/cancel", h.CancelOrder)

	products := r.Group("/products")
	products.GET("", h.ListProducts)
	products.GET("/search", h.SearchProducts)
	products.POST("", h.CreateProduct)
	products.GET("/:id", h.GetProduct)
	products.PUT("/:id", h.UpdateProduct)
	products.DELETE("/:id", h.DeleteProduct)
	products.GET("/:id/reviews", h.ListProductReviews)
	products.POST("/:id/reviews", h.CreateReview)

	r.POST("/reviews/:id/helpful", h.MarkReviewHelpful)

	r.GET("/categories", h.ListCategories)
	r.POST("/categories", h.CreateCategory)

	users := r.Group("/users")
	users.GET("", h.ListUsers)
	users.POST("", h.CreateUser)
	users.GET("/:id", h.GetUser)
	users.PUT("/:id", h.UpdateUser)
	users.DELETE("/:id", h.DeleteUser)
	users.GET("/:id/orders", h.ListUserOrders)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
