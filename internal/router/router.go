package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"cardpay/internal/auth"
	"cardpay/internal/config"
	"cardpay/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	tokenStore auth.TokenStoreInterface,
	authHandler *handler.AuthHandler,
	cardHandler *handler.CardHandler,
	paymentHandler *handler.PaymentHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Operator auth routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)

	// Card management routes. The simulator is an open sandbox, so these
	// stay public.
	api.POST("/cards", cardHandler.CreateCard)
	api.GET("/cards", cardHandler.ListCards)
	api.GET("/cards/test-scenarios", cardHandler.GetTestScenarios)
	api.GET("/cards/:cardNumber", cardHandler.GetCardByNumber)
	api.POST("/cards/initialize", cardHandler.InitializeValidCards)
	api.POST("/cards/initialize-test-scenarios", cardHandler.InitializeTestScenarioCards)

	// Payment routes
	api.POST("/payments/process", paymentHandler.ProcessPayment)
	api.POST("/payments/refund/:transactionId", paymentHandler.ProcessRefund)
	api.GET("/payments/transactions", paymentHandler.ListTransactions)
	api.GET("/payments/transactions/card/:cardNumber", paymentHandler.GetTransactionsByCard)
	api.GET("/payments/transactions/:transactionId", paymentHandler.GetTransaction)
	api.GET("/payments/status/:transactionId", paymentHandler.GetTransactionStatus)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.JWTSecret),
		TokenLookup: "header:" + echo.HeaderAuthorization,
	}))
	secured.Use(rejectBlacklistedTokens(tokenStore))

	secured.GET("/me", func(c echo.Context) error {
		token, ok := c.Get("user").(*jwt.Token)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		return c.JSON(http.StatusOK, echo.Map{
			"operator_id": claims["operator_id"],
			"email":       claims["email"],
		})
	})
}

// rejectBlacklistedTokens turns away access tokens that were revoked at
// logout. It runs after the JWT middleware, so the context token is already
// signature-checked.
func rejectBlacklistedTokens(tokenStore auth.TokenStoreInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if jti, ok := claims["jti"].(string); ok && jti != "" {
				blacklisted, err := tokenStore.IsAccessTokenBlacklisted(c.Request().Context(), jti)
				if err == nil && blacklisted {
					return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
				}
			}
			return next(c)
		}
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
