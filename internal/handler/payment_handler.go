package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"cardpay/internal/errors"
	"cardpay/internal/service"
)

// parseAmount parses a monetary amount, rejecting non-positive values and
// sub-cent precision.
func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil || !amount.IsPositive() || amount.Exponent() < -2 {
		return decimal.Decimal{}, fmt.Errorf("%w: must be a positive decimal with at most 2 fractional digits", errors.ErrInvalidAmount)
	}
	return amount, nil
}

// PaymentHandler handles payment and transaction endpoints.
type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// PaymentRequest represents a payment processing request.
type PaymentRequest struct {
	CardNumber  string `json:"card_number" validate:"required,len=16,numeric"`
	CVV         string `json:"cvv" validate:"required,numeric,min=3,max=4"`
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description" validate:"omitempty,max=255"`
}

// PaymentResponse represents the engine outcome returned to the caller.
type PaymentResponse struct {
	Status        string     `json:"status"`
	Message       string     `json:"message"`
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
	Timestamp     *time.Time `json:"timestamp,omitempty"`
}

// ProcessPayment godoc
// @Summary Process a payment
// @Tags payments
// @Accept json
// @Produce json
// @Param request body PaymentRequest true "Payment data"
// @Success 200 {object} PaymentResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /payments/process [post]
func (h *PaymentHandler) ProcessPayment(c echo.Context) error {
	var req PaymentRequest
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

	amount, err := parseAmount(req.Amount)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	result := h.paymentService.ProcessPayment(c.Request().Context(), req.CardNumber, req.CVV, amount, req.Description)

	return c.JSON(http.StatusOK, PaymentResponse{
		Status:        string(result.Status),
		Message:       result.Message,
		TransactionID: result.TransactionID,
		Timestamp:     result.Timestamp,
	})
}

// ProcessRefund godoc
// @Summary Process a refund
// @Tags payments
// @Produce json
// @Param transactionId path string true "Transaction ID"
// @Success 200 {object} PaymentResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /payments/refund/{transactionId} [post]
func (h *PaymentHandler) ProcessRefund(c echo.Context) error {
	transactionID, err := uuid.Parse(c.Param("transactionId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid transaction ID",
			Code:  "INVALID_UUID",
		})
	}

	result, err := h.paymentService.ProcessRefund(c.Request().Context(), transactionID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, PaymentResponse{
		Status:        string(result.Status),
		Message:       result.Message,
		TransactionID: result.TransactionID,
		Timestamp:     result.Timestamp,
	})
}

// ListTransactions godoc
// @Summary Get all transactions
// @Tags payments
// @Produce json
// @Success 200 {array} model.Transaction
// @Failure 500 {object} errors.ErrorResponse
// @Router /payments/transactions [get]
func (h *PaymentHandler) ListTransactions(c echo.Context) error {
	transactions, err := h.paymentService.ListTransactions(c.Request().Context())
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, transactions)
}

// GetTransaction godoc
// @Summary Get transaction by ID
// @Tags payments
// @Produce json
// @Param transactionId path string true "Transaction ID"
// @Success 200 {object} model.Transaction
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /payments/transactions/{transactionId} [get]
func (h *PaymentHandler) GetTransaction(c echo.Context) error {
	transactionID, err := uuid.Parse(c.Param("transactionId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid transaction ID",
			Code:  "INVALID_UUID",
		})
	}

	transaction, err := h.paymentService.GetTransaction(c.Request().Context(), transactionID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, transaction)
}

// GetTransactionsByCard godoc
// @Summary Get transactions by card number
// @Tags payments
// @Produce json
// @Param cardNumber path string true "Card number"
// @Success 200 {array} model.Transaction
// @Failure 404 {object} errors.ErrorResponse
// @Router /payments/transactions/card/{cardNumber} [get]
func (h *PaymentHandler) GetTransactionsByCard(c echo.Context) error {
	cardNumber := c.Param("cardNumber")
	transactions, err := h.paymentService.GetTransactionsForCard(c.Request().Context(), cardNumber)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	// The ledger hands back an empty slice for cards with no history; at the
	// transport level that reads as not found.
	if len(transactions) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, errors.ErrorResponse{
			Error: "no transactions found for card",
			Code:  "TRANSACTIONS_NOT_FOUND",
		})
	}
	return c.JSON(http.StatusOK, transactions)
}

// GetTransactionStatus godoc
// @Summary Get transaction status
// @Tags payments
// @Produce json
// @Param transactionId path string true "Transaction ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /payments/status/{transactionId} [get]
func (h *PaymentHandler) GetTransactionStatus(c echo.Context) error {
	transactionID, err := uuid.Parse(c.Param("transactionId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid transaction ID",
			Code:  "INVALID_UUID",
		})
	}

	status, err := h.paymentService.GetTransactionStatus(c.Request().Context(), transactionID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": string(status)})
}
