package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/meucardapio/pedidos-app/antiabuse"
	"github.com/meucardapio/pedidos-app/catalog"
	"github.com/meucardapio/pedidos-app/config"
	"github.com/meucardapio/pedidos-app/models"
	"github.com/meucardapio/pedidos-app/router"
	"github.com/meucardapio/pedidos-app/utils"
)

func init() {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("no .env file found, using process environment")
	}
}

func main() {
	cfg := config.Load()
	utils.SetJWTSecret(cfg.JWTSecret)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("failed to connect to database: %v", err)
	}
	autoMigrate(db)

	cat, err := catalog.Load(cfg.MenuFile)
	if err != nil {
		utils.ErrorLogger.Fatalf("failed to load menu catalog: %v", err)
	}
	utils.InfoLogger.Printf("menu catalog loaded: %d items", cat.Len())

	// Rate-limit buckets default to a process-local table; REDIS_ADDR plugs
	// in a shared store so multiple replicas enforce one limit.
	var store antiabuse.BucketStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store = antiabuse.NewRedisStore(client, cfg.OrderRateLimitWindow)
		utils.InfoLogger.Printf("rate-limit buckets in redis at %s", cfg.RedisAddr)
	} else {
		store = antiabuse.NewMemoryStore(cfg.OrderRateLimitWindow)
	}

	captcha := antiabuse.NewCaptchaVerifier(cfg.TurnstileSiteKey, cfg.TurnstileSecretKey)
	if cfg.CaptchaEnabled && !captcha.Configured() {
		utils.ErrorLogger.Println("captcha enabled but TURNSTILE keys missing; submissions will fail with setup errors")
	}

	r := router.SetupRouter(router.Options{
		DB:                   db,
		Catalog:              cat,
		Limiter:              antiabuse.NewLimiter(store),
		Captcha:              captcha,
		CaptchaEnabled:       cfg.CaptchaEnabled,
		OrderRateLimitMax:    cfg.OrderRateLimitMax,
		OrderRateLimitWindow: cfg.OrderRateLimitWindow,
	})

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Order{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	seedAdminUser(db)
}

// seedAdminUser creates the initial staff account from ADMIN_EMAIL /
// ADMIN_PASSWORD_HASH when the users table is empty.
func seedAdminUser(db *gorm.DB) {
	email := os.Getenv("ADMIN_EMAIL")
	passwordHash := os.Getenv("ADMIN_PASSWORD_HASH")
	if email == "" || passwordHash == "" {
		return
	}

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count > 0 {
		return
	}

	user := models.User{
		Name:     "Admin",
		Email:    email,
		Password: passwordHash,
		Role:     "admin",
	}
	if err := db.Create(&user).Error; err != nil {
		utils.ErrorLogger.Printf("failed to seed admin user: %v", err)
		return
	}
	utils.InfoLogger.Printf("seeded admin user %s", email)
}
