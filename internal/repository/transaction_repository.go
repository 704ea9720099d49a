package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cardpay/internal/model"
)

// TransactionRepository defines transaction ledger persistence operations.
// Transactions are appended and status-updated, never deleted.
type TransactionRepository interface {
	Create(ctx context.Context, transaction *model.Transaction) error
	Update(ctx context.Context, transaction *model.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	ListAll(ctx context.Context) ([]model.Transaction, error)
	FindByCardNumber(ctx context.Context, cardNumber string) ([]model.Transaction, error)
}

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// Create appends a new transaction record.
func (r *transactionRepository) Create(ctx context.Context, transaction *model.Transaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

// Update updates an existing transaction record.
func (r *transactionRepository) Update(ctx context.Context, transaction *model.Transaction) error {
	return r.db.WithContext(ctx).Save(transaction).Error
}

// FindByID finds a transaction by ID.
func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&transaction).Error; err != nil {
		return nil, err
	}
	return &transaction, nil
}

// ListAll returns all transactions.
func (r *transactionRepository) ListAll(ctx context.Context) ([]model.Transaction, error) {
	var transactions []model.Transaction
	if err := r.db.WithContext(ctx).Order("created_at").Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

// FindByCardNumber returns all transactions for a card, joining through the
// referenced card's number. Cards with no history yield an empty slice.
func (r *transactionRepository) FindByCardNumber(ctx context.Context, cardNumber string) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.db.WithContext(ctx).
		Joins("JOIN cards ON cards.id = transactions.card_id").
		Where("cards.card_number = ?", cardNumber).
		Order("transactions.created_at").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}
	return transactions, nil
}
