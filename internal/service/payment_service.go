package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cardpay/internal/cache"
	"cardpay/internal/errors"
	"cardpay/internal/model"
	"cardpay/internal/repository"
)

const (
	msgCardNotFound      = "Card not found"
	msgCardExpired       = "Card is expired"
	msgInvalidCVV        = "Invalid CVV"
	msgInsufficientFunds = "Insufficient funds"
	msgPaymentApproved   = "Payment processed successfully"
	msgRefundApproved    = "Refund processed successfully"
	msgRefundNotApproved = "Cannot refund a non-approved transaction"
)

// PaymentResult is the engine's decision for a payment or refund attempt.
// Business declines and system failures are carried in the result, not as
// errors, so the transport layer always answers declines with a 200.
type PaymentResult struct {
	Status        model.TransactionStatus
	Message       string
	TransactionID *uuid.UUID
	Timestamp     *time.Time
}

// PaymentService is the payment authorization engine. It decides payment
// outcomes, mutates card balances on approval and records transactions in
// the ledger.
type PaymentService interface {
	ProcessPayment(ctx context.Context, cardNumber, cvv string, amount decimal.Decimal, description string) *PaymentResult
	ProcessRefund(ctx context.Context, transactionID uuid.UUID) (*PaymentResult, error)
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	GetTransactionsForCard(ctx context.Context, cardNumber string) ([]model.Transaction, error)
	GetTransactionStatus(ctx context.Context, id uuid.UUID) (model.TransactionStatus, error)
}

type paymentService struct {
	cardRepo        repository.CardRepository
	transactionRepo repository.TransactionRepository
	atomic          repository.Atomic
	cache           *cache.Client
	now             func() time.Time
}

// NewPaymentService creates a new payment service.
func NewPaymentService(
	cardRepo repository.CardRepository,
	transactionRepo repository.TransactionRepository,
	atomic repository.Atomic,
	cache *cache.Client,
) PaymentService {
	return &paymentService{
		cardRepo:        cardRepo,
		transactionRepo: transactionRepo,
		atomic:          atomic,
		cache:           cache,
		now:             time.Now,
	}
}

// ProcessPayment runs the authorization decision chain: card lookup, expiry,
// CVV, funds. The first failing check short-circuits with its own outcome;
// only a full pass mutates state. The check order is significant for the
// user-visible decline messages.
func (s *paymentService) ProcessPayment(ctx context.Context, cardNumber, cvv string, amount decimal.Decimal, description string) *PaymentResult {
	card, err := s.cardRepo.FindByNumber(ctx, cardNumber)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return failedResult(msgCardNotFound)
		}
		return failedResult("Payment processing failed: " + err.Error())
	}

	if s.isExpired(card.ExpirationDate) {
		return declinedResult(msgCardExpired)
	}

	if card.CVV != cvv {
		return declinedResult(msgInvalidCVV)
	}

	if card.Balance.LessThan(amount) {
		return declinedResult(msgInsufficientFunds)
	}

	transaction := &model.Transaction{
		CardID:      card.ID,
		Amount:      amount,
		Status:      model.TransactionStatusApproved,
		Description: description,
		CreatedAt:   s.now(),
	}
	// Record the transaction and decrement the balance in one database
	// transaction; a failure of either rolls back both. The decrement is
	// relative so the store serializes it against concurrent payments.
	err = s.atomic.RunInTransaction(ctx, func(ctx context.Context, cards repository.CardRepository, transactions repository.TransactionRepository) error {
		if err := transactions.Create(ctx, transaction); err != nil {
			return err
		}
		return cards.AdjustBalance(ctx, card.ID, amount.Neg())
	})
	if err != nil {
		return failedResult("Payment processing failed: " + err.Error())
	}

	_ = s.cache.Delete(ctx, cardCacheKey(card.CardNumber))

	return &PaymentResult{
		Status:        model.TransactionStatusApproved,
		Message:       msgPaymentApproved,
		TransactionID: &transaction.ID,
		Timestamp:     &transaction.CreatedAt,
	}
}

// ProcessRefund reverses an approved transaction: the card balance is
// restored by the transaction amount and the status flips to REFUNDED.
// Refunding anything but an APPROVED transaction is declined, so a second
// refund of the same transaction is rejected rather than a no-op.
func (s *paymentService) ProcessRefund(ctx context.Context, transactionID uuid.UUID) (*PaymentResult, error) {
	transaction, err := s.transactionRepo.FindByID(ctx, transactionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrTransactionNotFound
		}
		return failedResult("Refund processing failed: " + err.Error()), nil
	}

	if transaction.Status != model.TransactionStatusApproved {
		return declinedResult(msgRefundNotApproved), nil
	}

	card, err := s.cardRepo.FindByID(ctx, transaction.CardID)
	if err != nil {
		return failedResult("Refund processing failed: " + err.Error()), nil
	}

	transaction.Status = model.TransactionStatusRefunded

	err = s.atomic.RunInTransaction(ctx, func(ctx context.Context, cards repository.CardRepository, transactions repository.TransactionRepository) error {
		if err := cards.AdjustBalance(ctx, card.ID, transaction.Amount); err != nil {
			return err
		}
		return transactions.Update(ctx, transaction)
	})
	if err != nil {
		transaction.Status = model.TransactionStatusApproved
		return failedResult("Refund processing failed: " + err.Error()), nil
	}

	_ = s.cache.Delete(ctx, cardCacheKey(card.CardNumber))

	return &PaymentResult{
		Status:        model.TransactionStatusRefunded,
		Message:       msgRefundApproved,
		TransactionID: &transaction.ID,
	}, nil
}

// ListTransactions returns the full ledger.
func (s *paymentService) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	return s.transactionRepo.ListAll(ctx)
}

// GetTransaction retrieves a single transaction by ID.
func (s *paymentService) GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	transaction, err := s.transactionRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// GetTransactionsForCard returns all transactions referencing the card
// number, possibly empty. The transport layer decides what an empty result
// means.
func (s *paymentService) GetTransactionsForCard(ctx context.Context, cardNumber string) ([]model.Transaction, error) {
	return s.transactionRepo.FindByCardNumber(ctx, cardNumber)
}

// GetTransactionStatus returns the current status of a transaction.
func (s *paymentService) GetTransactionStatus(ctx context.Context, id uuid.UUID) (model.TransactionStatus, error) {
	transaction, err := s.GetTransaction(ctx, id)
	if err != nil {
		return "", err
	}
	return transaction.Status, nil
}

// isExpired reports whether the expiration date is on or before today.
func (s *paymentService) isExpired(expiration time.Time) bool {
	return !expiration.After(truncateToDay(s.now()))
}

func declinedResult(message string) *PaymentResult {
	return &PaymentResult{Status: model.TransactionStatusDeclined, Message: message}
}

func failedResult(message string) *PaymentResult {
	return &PaymentResult{Status: model.TransactionStatusFailed, Message: message}
}
