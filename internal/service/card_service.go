package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cardpay/internal/cache"
	"cardpay/internal/errors"
	"cardpay/internal/model"
	"cardpay/internal/repository"
)

const cardCacheTTL = 5 * time.Minute

// ScenarioCard describes one well-known test card in the scenario catalog.
type ScenarioCard struct {
	CardNumber  string `json:"card_number"`
	Description string `json:"description"`
	CVV         string `json:"cvv"`
	Expiry      string `json:"expiry"`
}

// CardService handles card store operations and fixture seeding.
type CardService interface {
	CreateCard(ctx context.Context, card *model.Card) (*model.Card, error)
	ListCards(ctx context.Context) ([]model.Card, error)
	GetCardByNumber(ctx context.Context, cardNumber string) (*model.Card, error)
	InitializeValidCards(ctx context.Context) ([]model.Card, error)
	InitializeTestScenarioCards(ctx context.Context) ([]model.Card, error)
	TestScenarios() map[string][]ScenarioCard
}

type cardService struct {
	cardRepo  repository.CardRepository
	cache     *cache.Client
	validator *CardValidator
	now       func() time.Time
}

// NewCardService creates a new card service.
func NewCardService(cardRepo repository.CardRepository, cache *cache.Client) CardService {
	return &cardService{
		cardRepo:  cardRepo,
		cache:     cache,
		validator: NewCardValidator(),
		now:       time.Now,
	}
}

func cardCacheKey(cardNumber string) string {
	return fmt.Sprintf("card:%s", cardNumber)
}

// CreateCard validates and stores a new card. Card numbers must be unique.
func (s *cardService) CreateCard(ctx context.Context, card *model.Card) (*model.Card, error) {
	if err := s.validator.ValidateNewCard(card, s.now()); err != nil {
		return nil, err
	}

	existing, err := s.cardRepo.FindByNumber(ctx, card.CardNumber)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("check card existence: %w", err)
	}
	if existing != nil {
		return nil, errors.ErrDuplicateCard
	}

	if err := s.cardRepo.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}

	_ = s.cache.Delete(ctx, cardCacheKey(card.CardNumber))
	return card, nil
}

// ListCards returns all cards.
func (s *cardService) ListCards(ctx context.Context) ([]model.Card, error) {
	return s.cardRepo.ListAll(ctx)
}

// GetCardByNumber retrieves a card by its number with caching.
func (s *cardService) GetCardByNumber(ctx context.Context, cardNumber string) (*model.Card, error) {
	if data, _ := s.cache.Get(ctx, cardCacheKey(cardNumber)); data != nil {
		var cached model.Card
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	card, err := s.cardRepo.FindByNumber(ctx, cardNumber)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCardNotFound
		}
		return nil, fmt.Errorf("get card: %w", err)
	}

	if payload, err := json.Marshal(card); err == nil {
		_ = s.cache.Set(ctx, cardCacheKey(cardNumber), payload, cardCacheTTL)
	}

	return card, nil
}

// InitializeValidCards resets the card store and seeds the well-known valid
// test cards.
func (s *cardService) InitializeValidCards(ctx context.Context) ([]model.Card, error) {
	now := s.now()
	cards := []model.Card{
		fixtureCard("4242424242424242", "John Doe", now.AddDate(2, 0, 0), "123", "1000.00"),
		fixtureCard("5555555555554444", "Jane Smith", now.AddDate(1, 0, 0), "456", "500.00"),
		fixtureCard("378282246310005", "Bob Johnson", now.AddDate(0, 6, 0), "789", "2000.00"),
		fixtureCard("6011111111111117", "Alice Brown", now.AddDate(3, 0, 0), "321", "750.00"),
	}
	return s.resetAndSeed(ctx, cards)
}

// InitializeTestScenarioCards resets the card store and seeds the official
// scenario cards (approval, decline, error, insufficient funds, expired).
func (s *cardService) InitializeTestScenarioCards(ctx context.Context) ([]model.Card, error) {
	now := s.now()
	cards := []model.Card{
		// Always approved cards
		fixtureCard("4242424242424242", "Always Approved", now.AddDate(2, 0, 0), "123", "10000.00"),
		fixtureCard("5555555555554444", "Always Approved", now.AddDate(1, 0, 0), "456", "5000.00"),

		// Always declined cards
		fixtureCard("4000000000000002", "Always Declined", now.AddDate(2, 0, 0), "789", "1000.00"),
		fixtureCard("4000000000000010", "Always Declined", now.AddDate(1, 0, 0), "321", "2000.00"),

		// Error scenario cards
		fixtureCard("4000000000000341", "Processing Error", now.AddDate(2, 0, 0), "456", "3000.00"),
		fixtureCard("4000000000000119", "Processing Error", now.AddDate(1, 0, 0), "789", "4000.00"),

		// Insufficient funds cards
		fixtureCard("4000000000009995", "Insufficient Funds", now.AddDate(2, 0, 0), "123", "10.00"),
		fixtureCard("4000000000009987", "Insufficient Funds", now.AddDate(1, 0, 0), "456", "5.00"),

		// Expired cards
		fixtureCard("4000000000000069", "Expired Card", now.AddDate(0, -1, 0), "789", "1000.00"),
		fixtureCard("4000000000000127", "Expired Card", now.AddDate(0, 0, -1), "321", "2000.00"),
	}
	return s.resetAndSeed(ctx, cards)
}

// resetAndSeed wipes the card store and inserts the given fixture set.
// Expired fixture cards are inserted on purpose, so no boundary validation
// runs here.
func (s *cardService) resetAndSeed(ctx context.Context, cards []model.Card) ([]model.Card, error) {
	existing, err := s.cardRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	for _, card := range existing {
		_ = s.cache.Delete(ctx, cardCacheKey(card.CardNumber))
	}

	if _, err := s.cardRepo.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("delete cards: %w", err)
	}

	seeded := make([]model.Card, 0, len(cards))
	for _, card := range cards {
		if err := s.cardRepo.Create(ctx, &card); err != nil {
			return nil, fmt.Errorf("seed card %s: %w", card.CardNumber, err)
		}
		seeded = append(seeded, card)
	}
	return seeded, nil
}

// TestScenarios returns the static catalog describing the scenario cards.
func (s *cardService) TestScenarios() map[string][]ScenarioCard {
	return map[string][]ScenarioCard{
		"always_approved": {
			{CardNumber: "4242424242424242", Description: "Visa card that will always be approved", CVV: "123", Expiry: "12/25"},
			{CardNumber: "5555555555554444", Description: "Mastercard that will always be approved", CVV: "456", Expiry: "12/25"},
		},
		"always_declined": {
			{CardNumber: "4000000000000002", Description: "Visa card that will always be declined", CVV: "789", Expiry: "12/25"},
			{CardNumber: "4000000000000010", Description: "Visa card that will always be declined", CVV: "321", Expiry: "12/25"},
		},
		"processing_error": {
			{CardNumber: "4000000000000341", Description: "Visa card that will trigger a processing error", CVV: "456", Expiry: "12/25"},
			{CardNumber: "4000000000000119", Description: "Visa card that will trigger a processing error", CVV: "789", Expiry: "12/25"},
		},
		"insufficient_funds": {
			{CardNumber: "4000000000009995", Description: "Visa card that will always have insufficient funds", CVV: "123", Expiry: "12/25"},
			{CardNumber: "4000000000009987", Description: "Visa card that will always have insufficient funds", CVV: "456", Expiry: "12/25"},
		},
		"expired_cards": {
			{CardNumber: "4000000000000069", Description: "Visa card that is expired", CVV: "789", Expiry: "01/23"},
			{CardNumber: "4000000000000127", Description: "Visa card that is expired", CVV: "321", Expiry: "01/23"},
		},
	}
}

func fixtureCard(number, holder string, expiration time.Time, cvv, balance string) model.Card {
	return model.Card{
		CardNumber:     number,
		CardholderName: holder,
		ExpirationDate: expiration,
		CVV:            cvv,
		Balance:        decimal.RequireFromString(balance),
	}
}
