package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/config"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/middleware"
)

type Services struct {
	Auth      AuthService
	Category  CategoryService
	Product   ProductService
	Cart      CartService
	Checkout  CheckoutService
	Payment   PaymentService
	Order     OrderService
	Analytics AnalyticsService
	Checks    map[string]Check
}

func NewRouter(svc Services, jwtSecret string, session config.SessionConfig, log *slog.Logger) *gin.Engine {
	RegisterValidators()

	authH := NewAuthHandler(svc.Auth, log)
	categoryH := NewCategoryHandler(svc.Category, log)
	productH := NewProductHandler(svc.Product, log)
	cartH := NewCartHandler(svc.Cart, svc.Checkout, svc.Payment, log)
	orderH := NewOrderHandler(svc.Order, svc.Checkout, log)
	webhookH := NewWebhookHandler(svc.Payment, log)
	analyticsH := NewAnalyticsHandler(svc.Analytics, log)
	healthH := NewHealthHandler(svc.Checks)

	requireAuth := middleware.AuthMiddleware(jwtSecret)
	staff := []gin.HandlerFunc{requireAuth, middleware.StaffOnly()}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)
	router.POST("/paystack/webhook/", webhookH.Paystack)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)
		auth.GET("/me", requireAuth, authH.Me)

		categories := v1.Group("/categories")
		categories.GET("", categoryH.List)
		categories.GET("/:id", categoryH.Get)
		categories.POST("", append(staff, categoryH.Create)...)
		categories.DELETE("/:id", append(staff, categoryH.Delete)...)

		products := v1.Group("/products")
		products.GET("", productH.List)
		products.GET("/:id", productH.GetByID)
		products.POST("", append(staff, productH.Create)...)
		products.PATCH("/:id", append(staff, productH.Update)...)
		products.DELETE("/:id", append(staff, productH.Delete)...)

		cart := v1.Group("/cart", middleware.OptionalAuth(jwtSecret), middleware.CartSession(session))
		cart.GET("", cartH.GetCart)
		cart.POST("/items", cartH.AddItem)
		cart.POST("/update_quantity", cartH.UpdateQuantity)
		cart.POST("/remove_item", cartH.RemoveItem)
		cart.POST("/clear", cartH.Clear)
		cart.POST("/merge", requireAuth, cartH.Merge)
		cart.POST("/checkout", requireAuth, cartH.Checkout)
		cart.GET("/verify_payment", requireAuth, cartH.VerifyPayment)

		orders := v1.Group("/orders", requireAuth)
		orders.GET("", orderH.ListOrders)
		orders.GET("/:id", orderH.GetOrder)
		orders.POST("/:id/payment", orderH.InitializePayment)
		orders.PATCH("/:id", middleware.StaffOnly(), orderH.UpdateStatus)

		v1.GET("/admin/analytics", append(staff, analyticsH.Dashboard)...)
	}

	return router
}
