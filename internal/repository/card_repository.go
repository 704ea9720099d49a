package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cardpay/internal/model"
)

// CardRepository defines card persistence operations.
type CardRepository interface {
	Create(ctx context.Context, card *model.Card) error
	Update(ctx context.Context, card *model.Card) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Card, error)
	FindByNumber(ctx context.Context, cardNumber string) (*model.Card, error)
	ListAll(ctx context.Context) ([]model.Card, error)
	DeleteAll(ctx context.Context) (int64, error)
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
}

type cardRepository struct {
	db *gorm.DB
}

// NewCardRepository creates a new card repository.
func NewCardRepository(db *gorm.DB) CardRepository {
	return &cardRepository{db: db}
}

// Create creates a new card.
func (r *cardRepository) Create(ctx context.Context, card *model.Card) error {
	return r.db.WithContext(ctx).Create(card).Error
}

// Update updates an existing card.
func (r *cardRepository) Update(ctx context.Context, card *model.Card) error {
	return r.db.WithContext(ctx).Save(card).Error
}

// FindByID finds a card by ID.
func (r *cardRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Card, error) {
	var card model.Card
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&card).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

// FindByNumber finds a card by its card number.
func (r *cardRepository) FindByNumber(ctx context.Context, cardNumber string) (*model.Card, error) {
	var card model.Card
	if err := r.db.WithContext(ctx).Where("card_number = ?", cardNumber).First(&card).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

// ListAll returns all cards.
func (r *cardRepository) ListAll(ctx context.Context) ([]model.Card, error) {
	var cards []model.Card
	if err := r.db.WithContext(ctx).Order("created_at").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// DeleteAll removes every card and returns the number of rows removed.
// Used by the fixture-initialization endpoints.
func (r *cardRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("1 = 1").Delete(&model.Card{})
	return res.RowsAffected, res.Error
}

// AdjustBalance applies a relative balance change in the database, so
// concurrent writers cannot overwrite each other with stale reads.
func (r *cardRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&model.Card{}).
		Where("id = ?", id).
		Update("balance", gorm.Expr("balance + ?", delta)).Error
}
