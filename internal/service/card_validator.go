package service

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"cardpay/internal/errors"
	"cardpay/internal/model"
)

var (
	// Accepted card number formats: Visa, Mastercard, Amex, Discover.
	cardNumberRegex = regexp.MustCompile(`^(?:4[0-9]{12}(?:[0-9]{3})?|5[1-5][0-9]{14}|3[47][0-9]{13}|6(?:011|5[0-9]{2})[0-9]{12})$`)
	cvvRegex        = regexp.MustCompile(`^[0-9]{3,4}$`)
)

// CardValidator enforces the card-store boundary rules before a record is
// accepted. The store itself only enforces number uniqueness.
type CardValidator struct{}

// NewCardValidator creates a new card validator.
func NewCardValidator() *CardValidator {
	return &CardValidator{}
}

// ValidateNewCard checks a card against the creation rules: recognized and
// Luhn-valid number, non-empty cardholder name, future expiration date,
// 3-4 digit CVV and a non-negative balance. Today is passed in so callers
// control the clock.
func (v *CardValidator) ValidateNewCard(card *model.Card, today time.Time) error {
	if !cardNumberRegex.MatchString(card.CardNumber) {
		return fmt.Errorf("%w: card number format is not recognized", errors.ErrInvalidCard)
	}
	if !validateLuhn(card.CardNumber) {
		return fmt.Errorf("%w: card number fails checksum", errors.ErrInvalidCard)
	}
	if card.CardholderName == "" {
		return fmt.Errorf("%w: cardholder name is required", errors.ErrInvalidCard)
	}
	if !card.ExpirationDate.After(truncateToDay(today)) {
		return fmt.Errorf("%w: card must not be expired", errors.ErrInvalidCard)
	}
	if !cvvRegex.MatchString(card.CVV) {
		return fmt.Errorf("%w: cvv must be 3 or 4 digits", errors.ErrInvalidCard)
	}
	if card.Balance.LessThan(decimal.Zero) {
		return fmt.Errorf("%w: balance must not be negative", errors.ErrInvalidCard)
	}
	return nil
}

// validateLuhn validates a card number using the Luhn algorithm.
func validateLuhn(cardNumber string) bool {
	if len(cardNumber) < 13 || len(cardNumber) > 19 {
		return false
	}

	sum := 0
	double := false

	// Process from right to left
	for i := len(cardNumber) - 1; i >= 0; i-- {
		digit, err := strconv.Atoi(string(cardNumber[i]))
		if err != nil {
			return false
		}

		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}

		sum += digit
		double = !double
	}

	return sum%10 == 0
}

// truncateToDay drops the time-of-day component for date comparisons.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
