package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"cardpay/internal/errors"
	"cardpay/internal/model"
)

func newTestCardService(cardRepo *MockCardRepository) CardService {
	svc := NewCardService(cardRepo, nil)
	svc.(*cardService).now = func() time.Time { return testNow }
	return svc
}

func TestCardService_CreateCard(t *testing.T) {
	tests := []struct {
		name          string
		card          *model.Card
		setupMock     func(*MockCardRepository)
		expectedError error
	}{
		{
			name: "successful creation",
			card: testCard("250.00"),
			setupMock: func(m *MockCardRepository) {
				m.On("FindByNumber", mock.Anything, "4242424242424242").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.Card")).Return(nil)
			},
		},
		{
			name: "duplicate card number",
			card: testCard("250.00"),
			setupMock: func(m *MockCardRepository) {
				m.On("FindByNumber", mock.Anything, "4242424242424242").Return(testCard("1000.00"), nil)
			},
			expectedError: errors.ErrDuplicateCard,
		},
		{
			name: "invalid card rejected before store",
			card: func() *model.Card {
				card := testCard("250.00")
				card.CVV = "12"
				return card
			}(),
			setupMock:     func(m *MockCardRepository) {},
			expectedError: errors.ErrInvalidCard,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cardRepo := new(MockCardRepository)
			tt.setupMock(cardRepo)

			svc := newTestCardService(cardRepo)
			created, err := svc.CreateCard(context.Background(), tt.card)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, created)
				cardRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, created)
			}
			cardRepo.AssertExpectations(t)
		})
	}
}

func TestCardService_GetCardByNumber_NotFound(t *testing.T) {
	cardRepo := new(MockCardRepository)
	cardRepo.On("FindByNumber", mock.Anything, "4000000000000000").Return(nil, gorm.ErrRecordNotFound)

	svc := newTestCardService(cardRepo)
	card, err := svc.GetCardByNumber(context.Background(), "4000000000000000")

	assert.ErrorIs(t, err, errors.ErrCardNotFound)
	assert.Nil(t, card)
}

func TestCardService_InitializeValidCards(t *testing.T) {
	cardRepo := new(MockCardRepository)
	cardRepo.On("ListAll", mock.Anything).Return([]model.Card{*testCard("1000.00")}, nil)
	cardRepo.On("DeleteAll", mock.Anything).Return(int64(1), nil)
	cardRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Card")).Return(nil)

	svc := newTestCardService(cardRepo)
	cards, err := svc.InitializeValidCards(context.Background())

	assert.NoError(t, err)
	assert.Len(t, cards, 4)
	assert.Equal(t, "4242424242424242", cards[0].CardNumber)
	assert.True(t, cards[0].Balance.Equal(decimal.RequireFromString("1000.00")))
	cardRepo.AssertNumberOfCalls(t, "Create", 4)
	cardRepo.AssertExpectations(t)
}

func TestCardService_InitializeTestScenarioCards(t *testing.T) {
	cardRepo := new(MockCardRepository)
	cardRepo.On("ListAll", mock.Anything).Return([]model.Card{}, nil)
	cardRepo.On("DeleteAll", mock.Anything).Return(int64(0), nil)
	cardRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Card")).Return(nil)

	svc := newTestCardService(cardRepo)
	cards, err := svc.InitializeTestScenarioCards(context.Background())

	assert.NoError(t, err)
	assert.Len(t, cards, 10)

	// Expired fixture cards really are expired relative to the clock.
	byNumber := make(map[string]model.Card, len(cards))
	for _, card := range cards {
		byNumber[card.CardNumber] = card
	}
	assert.True(t, byNumber["4000000000000069"].ExpirationDate.Before(testNow))
	assert.True(t, byNumber["4000000000009995"].Balance.Equal(decimal.RequireFromString("10.00")))
}

func TestCardService_TestScenarios(t *testing.T) {
	svc := newTestCardService(new(MockCardRepository))
	scenarios := svc.TestScenarios()

	assert.Contains(t, scenarios, "always_approved")
	assert.Contains(t, scenarios, "always_declined")
	assert.Contains(t, scenarios, "processing_error")
	assert.Contains(t, scenarios, "insufficient_funds")
	assert.Contains(t, scenarios, "expired_cards")
	assert.Equal(t, "4242424242424242", scenarios["always_approved"][0].CardNumber)
}
