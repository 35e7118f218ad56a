package handler

import (
	"time"

	"github.com/Baaaki/storefront/internal/apperror"
	"github.com/Baaaki/storefront/internal/broker"
	"github.com/Baaaki/storefront/internal/config"
	"github.com/Baaaki/storefront/internal/metrics"
	"github.com/Baaaki/storefront/internal/middleware"
	"github.com/Baaaki/storefront/internal/repository"
	"github.com/Baaaki/storefront/internal/service"
	"github.com/Baaaki/storefront/internal/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the resources the router is built from. Redis is optional;
// without it there is no rate limiting and no order stream.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
}

func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config

	hasher := utils.NewPasswordHasher(cfg.PasswordPepper, cfg.SaltRounds)
	userRepo := repository.NewUserRepository(d.DB, hasher)
	productRepo := repository.NewProductRepository(d.DB)
	orderRepo := repository.NewOrderRepository(d.DB)

	var publisher broker.Publisher = broker.NoopPublisher{}
	var orderBroker *broker.RedisOrderBroker
	if d.Redis != nil {
		orderBroker = broker.NewRedisOrderBroker(d.Redis)
		publisher = orderBroker
	}

	authService := service.NewAuthService(userRepo, hasher, cfg.JWTSecret, cfg.JWTExpiry)
	orderService := service.NewOrderService(orderRepo, publisher)

	authHandler := NewAuthHandler(authService)
	userHandler := NewUserHandler(userRepo)
	productHandler := NewProductHandler(productRepo)
	orderHandler := NewOrderHandler(orderService)
	healthHandler := NewHealthHandler(d.DB, d.Redis)

	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		metrics.Middleware(),
		middleware.SecurityHeadersMiddleware(),
		middleware.HSTSMiddleware(cfg.IsProduction()),
		cors.New(corsConfig(cfg.CORSAllowedOrigins)),
		middleware.ErrorHandler(cfg.IsProduction()),
	)

	router.GET("/healthz", healthHandler.Health)
	router.GET("/metrics", metrics.Handler())

	api := router.Group("/")
	if d.Redis != nil {
		limiter := middleware.NewRateLimiter(d.Redis, middleware.RateLimiterConfig{
			MaxRequests: cfg.RateLimitMaxRequests,
			Window:      cfg.RateLimitWindow,
			BlockTime:   cfg.RateLimitBlockTime,
		})
		api.Use(limiter.Middleware())
	}
	api.Use(middleware.Identify(authService))

	signedIn := middleware.RequireUser()

	auth := api.Group("/auth")
	{
		auth.POST("/signup", Wrap(authHandler.Signup))
		auth.POST("/signin", Wrap(authHandler.Signin))
	}

	users := api.Group("/users", signedIn)
	{
		users.GET("", Wrap(userHandler.Index))
		users.POST("", Wrap(userHandler.Create))
		users.GET("/:id", Wrap(userHandler.Show))
		users.PUT("/:id", Wrap(userHandler.Update))
		users.DELETE("/:id", Wrap(userHandler.Delete))
	}

	products := api.Group("/products")
	{
		products.GET("", Wrap(productHandler.Index))
		products.GET("/top-five", Wrap(productHandler.TopFive))
		products.GET("/category/:category", Wrap(productHandler.ByCategory))
		products.GET("/:id", Wrap(productHandler.Show))
		products.POST("", signedIn, Wrap(productHandler.Create))
		products.PUT("/:id", Wrap(productHandler.Update))
		products.DELETE("/:id", Wrap(productHandler.Delete))
	}

	orders := api.Group("/orders")
	{
		orders.GET("", Wrap(orderHandler.Index))
		orders.GET("/mine", signedIn, Wrap(orderHandler.Mine))
		orders.GET("/mine/complete", signedIn, Wrap(orderHandler.MineComplete))
		if orderBroker != nil {
			stream := NewOrderStreamHandler(orderBroker, cfg.CORSAllowedOrigins)
			orders.GET("/live", signedIn, stream.Stream)
		}
		orders.GET("/:id", Wrap(orderHandler.Show))
		orders.POST("", signedIn, Wrap(orderHandler.Create))
		orders.PUT("/:id", Wrap(orderHandler.Update))
		orders.DELETE("/:id", Wrap(orderHandler.Delete))
	}

	router.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperror.NotFound("Can't find %q.", c.Request.URL.Path))
	})

	return router
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Retry-After"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
