package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/meucardapio/pedidos-app/antiabuse"
	"github.com/meucardapio/pedidos-app/catalog"
	"github.com/meucardapio/pedidos-app/controllers"
	"github.com/meucardapio/pedidos-app/middlewares"
	"github.com/meucardapio/pedidos-app/repositories"
)

// Options wires the external collaborators into the HTTP surface.
type Options struct {
	DB             *gorm.DB
	Catalog        *catalog.Catalog
	Limiter        *antiabuse.Limiter
	Captcha        *antiabuse.CaptchaVerifier
	CaptchaEnabled bool

	OrderRateLimitMax    int
	OrderRateLimitWindow time.Duration
}

func SetupRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.LoggerMiddleware())

	customerRepo := repositories.NewCustomerRepository(opts.DB)
	orderRepo := repositories.NewOrderRepository(opts.DB)

	orderCtrl := controllers.NewOrderController(opts.Catalog, customerRepo, orderRepo, opts.Captcha, opts.CaptchaEnabled)
	adminCtrl := controllers.NewAdminController(orderRepo)
	userCtrl := controllers.NewUserController(opts.DB)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/menu", orderCtrl.GetMenu)

	r.POST("/orders",
		middlewares.OrderRateLimit(opts.Limiter, opts.OrderRateLimitMax, opts.OrderRateLimitWindow),
		orderCtrl.CreateOrder)

	r.POST("/admin/login", middlewares.LoginRateLimit(), userCtrl.Login)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware())

	admin.GET("/orders", adminCtrl.GetOrders)
	admin.POST("/orders/:order_id/progress", adminCtrl.ProgressOrderStatus)

	return r
}
