package handler

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"cardpay/internal/errors"
	"cardpay/internal/model"
	"cardpay/internal/service"
)

// CardHandler handles card management endpoints.
type CardHandler struct {
	cardService service.CardService
}

// NewCardHandler creates a new card handler.
func NewCardHandler(cardService service.CardService) *CardHandler {
	return &CardHandler{cardService: cardService}
}

// CreateCardRequest represents a card creation request.
type CreateCardRequest struct {
	CardNumber     string `json:"card_number" validate:"required"`
	CardholderName string `json:"cardholder_name" validate:"required"`
	ExpirationDate string `json:"expiration_date" validate:"required"` // YYYY-MM-DD
	CVV            string `json:"cvv" validate:"required"`
	Balance        string `json:"balance" validate:"required"`
}

// CreateCard godoc
// @Summary Create a new card
// @Tags cards
// @Accept json
// @Produce json
// @Param request body CreateCardRequest true "Card data"
// @Success 201 {object} model.Card
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /cards [post]
func (h *CardHandler) CreateCard(c echo.Context) error {
	var req CreateCardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}

	expiration, err := time.Parse("2006-01-02", req.ExpirationDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "expiration_date must be in YYYY-MM-DD format",
			Code:  "INVALID_DATE",
		})
	}

	balance, err := decimal.NewFromString(req.Balance)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(fmt.Errorf("%w: balance must be a decimal number", errors.ErrInvalidAmount))
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	card := &model.Card{
		CardNumber:     req.CardNumber,
		CardholderName: req.CardholderName,
		ExpirationDate: expiration,
		CVV:            req.CVV,
		Balance:        balance,
	}

	created, err := h.cardService.CreateCard(c.Request().Context(), card)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusCreated, created)
}

// ListCards godoc
// @Summary Get all cards
// @Tags cards
// @Produce json
// @Success 200 {array} model.Card
// @Failure 500 {object} errors.ErrorResponse
// @Router /cards [get]
func (h *CardHandler) ListCards(c echo.Context) error {
	cards, err := h.cardService.ListCards(c.Request().Context())
	if err != nil {
		log.Printf("list cards: %v", err)
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, cards)
}

// GetCardByNumber godoc
// @Summary Get card by number
// @Tags cards
// @Produce json
// @Param cardNumber path string true "Card number"
// @Success 200 {object} model.Card
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /cards/{cardNumber} [get]
func (h *CardHandler) GetCardByNumber(c echo.Context) error {
	cardNumber := c.Param("cardNumber")
	card, err := h.cardService.GetCardByNumber(c.Request().Context(), cardNumber)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, card)
}

// InitializeValidCards godoc
// @Summary Initialize valid test cards
// @Tags cards
// @Produce json
// @Success 200 {array} model.Card
// @Failure 500 {object} errors.ErrorResponse
// @Router /cards/initialize [post]
func (h *CardHandler) InitializeValidCards(c echo.Context) error {
	cards, err := h.cardService.InitializeValidCards(c.Request().Context())
	if err != nil {
		log.Printf("initialize cards: %v", err)
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, cards)
}

// InitializeTestScenarioCards godoc
// @Summary Initialize test scenario cards
// @Tags cards
// @Produce json
// @Success 200 {array} model.Card
// @Failure 500 {object} errors.ErrorResponse
// @Router /cards/initialize-test-scenarios [post]
func (h *CardHandler) InitializeTestScenarioCards(c echo.Context) error {
	cards, err := h.cardService.InitializeTestScenarioCards(c.Request().Context())
	if err != nil {
		log.Printf("initialize test scenario cards: %v", err)
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, cards)
}

// GetTestScenarios godoc
// @Summary Get test card scenarios information
// @Tags cards
// @Produce json
// @Success 200 {object} map[string][]service.ScenarioCard
// @Router /cards/test-scenarios [get]
func (h *CardHandler) GetTestScenarios(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cardService.TestScenarios())
}
