package main

import (
	"log"
	"net/http"
	"os"

	_ "cardpay/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"cardpay/internal/auth"
	"cardpay/internal/cache"
	"cardpay/internal/config"
	"cardpay/internal/db"
	"cardpay/internal/handler"
	"cardpay/internal/model"
	"cardpay/internal/repository"
	"cardpay/internal/router"
	"cardpay/internal/service"
)

// @title Card Pay Simulator API
// @version 1.0
// @description Card payment simulator with card management, payment processing and refunds.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Drop tables if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, dropping all tables...")
		tables := []interface{}{
			&model.Transaction{},
			&model.Card{},
			&model.Operator{},
		}
		for _, table := range tables {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				log.Printf("Warning: Failed to drop table (may not exist): %v", err)
			}
		}
		log.Println("Tables dropped")
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.Card{},
		&model.Transaction{},
		&model.Operator{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize repositories
	cardRepo := repository.NewCardRepository(gormDB)
	transactionRepo := repository.NewTransactionRepository(gormDB)
	operatorRepo := repository.NewOperatorRepository(gormDB)
	atomic := repository.NewAtomicRunner(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(operatorRepo, jwtService, tokenStore)
	cardService := service.NewCardService(cardRepo, cacheClient)
	paymentService := service.NewPaymentService(cardRepo, transactionRepo, atomic, cacheClient)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	cardHandler := handler.NewCardHandler(cardService)
	paymentHandler := handler.NewPaymentHandler(paymentService)

	// Register routes
	router.Register(e, cfg, tokenStore, authHandler, cardHandler, paymentHandler)

	if cfg.SwaggerHost != "" {
		log.Printf("Swagger documentation available at: %s/swagger/index.html", cfg.SwaggerHost)
	} else {
		log.Printf("Swagger documentation available at: http://localhost:%s/swagger/index.html", cfg.ServerPort)
	}

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
