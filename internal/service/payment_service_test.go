package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"cardpay/internal/errors"
	"cardpay/internal/model"
	"cardpay/internal/repository"
)

// MockCardRepository is a mock implementation of CardRepository.
type MockCardRepository struct {
	mock.Mock
}

func (m *MockCardRepository) Create(ctx context.Context, card *model.Card) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *MockCardRepository) Update(ctx context.Context, card *model.Card) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *MockCardRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Card, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Card), args.Error(1)
}

func (m *MockCardRepository) FindByNumber(ctx context.Context, cardNumber string) (*model.Card, error) {
	args := m.Called(ctx, cardNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Card), args.Error(1)
}

func (m *MockCardRepository) ListAll(ctx context.Context) ([]model.Card, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Card), args.Error(1)
}

func (m *MockCardRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCardRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, transaction *model.Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) Update(ctx context.Context, transaction *model.Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListAll(ctx context.Context) ([]model.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByCardNumber(ctx context.Context, cardNumber string) ([]model.Transaction, error) {
	args := m.Called(ctx, cardNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Transaction), args.Error(1)
}

// stubAtomic runs the transactional function against the given mocks, or
// fails without running it.
type stubAtomic struct {
	cards        repository.CardRepository
	transactions repository.TransactionRepository
	err          error
}

func (s *stubAtomic) RunInTransaction(ctx context.Context, fn func(ctx context.Context, cards repository.CardRepository, transactions repository.TransactionRepository) error) error {
	if s.err != nil {
		return s.err
	}
	return fn(ctx, s.cards, s.transactions)
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestPaymentService(cardRepo *MockCardRepository, transactionRepo *MockTransactionRepository, atomicErr error) PaymentService {
	svc := NewPaymentService(cardRepo, transactionRepo, &stubAtomic{
		cards:        cardRepo,
		transactions: transactionRepo,
		err:          atomicErr,
	}, nil)
	svc.(*paymentService).now = func() time.Time { return testNow }
	return svc
}

func testCard(balance string) *model.Card {
	return &model.Card{
		ID:             uuid.New(),
		CardNumber:     "4242424242424242",
		CardholderName: "John Doe",
		ExpirationDate: testNow.AddDate(2, 0, 0),
		CVV:            "123",
		Balance:        decimal.RequireFromString(balance),
	}
}

func decimalEq(expected string) interface{} {
	want := decimal.RequireFromString(expected)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func TestPaymentService_ProcessPayment_Approved(t *testing.T) {
	cardRepo := new(MockCardRepository)
	transactionRepo := new(MockTransactionRepository)

	card := testCard("1000.00")
	cardRepo.On("FindByNumber", mock.Anything, "4242424242424242").Return(card, nil)

	var created *model.Transaction
	transactionRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Transaction")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*model.Transaction)
			created.ID = uuid.New()
		}).Return(nil)
	cardRepo.On("AdjustBalance", mock.Anything, card.ID, decimalEq("-100.00")).Return(nil)

	svc := newTestPaymentService(cardRepo, transactionRepo, nil)
	result := svc.ProcessPayment(context.Background(), "4242424242424242", "123", decimal.RequireFromString("100.00"), "coffee")

	assert.Equal(t, model.TransactionStatusApproved, result.Status)
	assert.Equal(t, "Payment processed successfully", result.Message)
	assert.NotNil(t, result.TransactionID)
	assert.NotNil(t, result.Timestamp)
	assert.Equal(t, testNow, *result.Timestamp)

	assert.NotNil(t, created)
	assert.Equal(t, card.ID, created.CardID)
	assert.Equal(t, model.TransactionStatusApproved, created.Status)
	assert.True(t, created.Amount.Equal(decimal.RequireFromString("100.00")))
	assert.Equal(t, "coffee", created.Description)

	cardRepo.AssertExpectations(t)
	transactionRepo.AssertExpectations(t)
}

func TestPaymentService_ProcessPayment_Declines(t *testing.T) {
	tests := []struct {
		name            string
		card            func() *model.Card
		cvv             string
		amount          string
		expectedStatus  model.TransactionStatus
		expectedMessage string
	}{
		{
			name:            "invalid cvv",
			card:            func() *model.Card { return testCard("1000.00") },
			cvv:             "000",
			amount:          "100.00",
			expectedStatus:  model.TransactionStatusDeclined,
			expectedMessage: "Invalid CVV",
		},
		{
			name:            "insufficient funds",
			card:            func() *model.Card { return testCard("10.00") },
			cvv:             "123",
			amount:          "100.00",
			expectedStatus:  model.TransactionStatusDeclined,
			expectedMessage: "Insufficient funds",
		},
		{
			name: "expired card",
			card: func() *model.Card {
				card := testCard("1000.00")
				card.ExpirationDate = testNow.AddDate(0, 0, -1)
				return card
			},
			cvv:             "123",
			amount:          "100.00",
			expectedStatus:  model.TransactionStatusDeclined,
			expectedMessage: "Card is expired",
		},
		{
			name: "card expiring today is already expired",
			card: func() *model.Card {
				card := testCard("1000.00")
				card.ExpirationDate = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
				return card
			},
			cvv:             "123",
			amount:          "100.00",
			expectedStatus:  model.TransactionStatusDeclined,
			expectedMessage: "Card is expired",
		},
		{
			name: "expiry checked before cvv",
			card: func() *model.Card {
				card := testCard("1000.00")
				card.ExpirationDate = testNow.AddDate(0, 0, -1)
				return card
			},
			cvv:             "000",
			amount:          "100.00",
			expectedStatus:  model.TransactionStatusDeclined,
			expectedMessage: "Card is expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cardRepo := new(MockCardRepository)
			transactionRepo := new(MockTransactionRepository)
			cardRepo.On("FindByNumber", mock.Anything, "4242424242424242").Return(tt.card(), nil)

			svc := newTestPaymentService(cardRepo, transactionRepo, nil)
			result := svc.ProcessPayment(context.Background(), "4242424242424242", tt.cvv, decimal.RequireFromString(tt.amount), "")

			assert.Equal(t, tt.expectedStatus, result.Status)
			assert.Equal(t, tt.expectedMessage, result.Message)
			assert.Nil(t, result.TransactionID)

			// Declined outcomes never persist a transaction or touch the balance.
			transactionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			cardRepo.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestPaymentService_ProcessPayment_CardNotFound(t *testing.T) {
	cardRepo := new(MockCardRepository)
	transactionRepo := new(MockTransactionRepository)
	cardRepo.On("FindByNumber", mock.Anything, "4000000000000000").Return(nil, gorm.ErrRecordNotFound)

	svc := newTestPaymentService(cardRepo, transactionRepo, nil)
	result := svc.ProcessPayment(context.Background(), "4000000000000000", "123", decimal.RequireFromString("100.00"), "")

	assert.Equal(t, model.TransactionStatusFailed, result.Status)
	assert.Equal(t, "Card not found", result.Message)
	assert.Nil(t, result.TransactionID)
	transactionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPaymentService_ProcessPayment_StoreFailure(t *testing.T) {
	cardRepo := new(MockCardRepository)
	transactionRepo := new(MockTransactionRepository)

	card := testCard("1000.00")
	cardRepo.On("FindByNumber", mock.Anything, "4242424242424242").Return(card, nil)

	svc := newTestPaymentService(cardRepo, transactionRepo, fmt.Errorf("store unavailable"))
	result := svc.ProcessPayment(context.Background(), "4242424242424242", "123", decimal.RequireFromString("100.00"), "")

	assert.Equal(t, model.TransactionStatusFailed, result.Status)
	assert.Contains(t, result.Message, "store unavailable")
	assert.Nil(t, result.TransactionID)
}

func TestPaymentService_ProcessRefund(t *testing.T) {
	card := testCard("900.00")

	tests := []struct {
		name            string
		setupMocks      func(*MockCardRepository, *MockTransactionRepository)
		expectedStatus  model.TransactionStatus
		expectedMessage string
		expectedError   error
	}{
		{
			name: "refund approved transaction",
			setupMocks: func(cardRepo *MockCardRepository, transactionRepo *MockTransactionRepository) {
				transaction := &model.Transaction{
					ID:     uuid.New(),
					CardID: card.ID,
					Amount: decimal.RequireFromString("100.00"),
					Status: model.TransactionStatusApproved,
				}
				transactionRepo.On("FindByID", mock.Anything, mock.Anything).Return(transaction, nil)
				cardRepo.On("FindByID", mock.Anything, card.ID).Return(card, nil)
				cardRepo.On("AdjustBalance", mock.Anything, card.ID, decimalEq("100.00")).Return(nil)
				transactionRepo.On("Update", mock.Anything, mock.MatchedBy(func(tr *model.Transaction) bool {
					return tr.Status == model.TransactionStatusRefunded
				})).Return(nil)
			},
			expectedStatus:  model.TransactionStatusRefunded,
			expectedMessage: "Refund processed successfully",
		},
		{
			name: "refund already refunded transaction",
			setupMocks: func(cardRepo *MockCardRepository, transactionRepo *MockTransactionRepository) {
				transaction := &model.Transaction{
					ID:     uuid.New(),
					CardID: card.ID,
					Amount: decimal.RequireFromString("100.00"),
					Status: model.TransactionStatusRefunded,
				}
				transactionRepo.On("FindByID", mock.Anything, mock.Anything).Return(transaction, nil)
			},
			expectedStatus:  model.TransactionStatusDeclined,
			expectedMessage: "Cannot refund a non-approved transaction",
		},
		{
			name: "unknown transaction",
			setupMocks: func(cardRepo *MockCardRepository, transactionRepo *MockTransactionRepository) {
				transactionRepo.On("FindByID", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: errors.ErrTransactionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cardRepo := new(MockCardRepository)
			transactionRepo := new(MockTransactionRepository)
			tt.setupMocks(cardRepo, transactionRepo)

			svc := newTestPaymentService(cardRepo, transactionRepo, nil)
			result, err := svc.ProcessRefund(context.Background(), uuid.New())

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, result.Status)
			assert.Equal(t, tt.expectedMessage, result.Message)

			if tt.expectedStatus == model.TransactionStatusDeclined {
				cardRepo.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
				transactionRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			}

			cardRepo.AssertExpectations(t)
			transactionRepo.AssertExpectations(t)
		})
	}
}

func TestPaymentService_ProcessRefund_StoreFailure(t *testing.T) {
	card := testCard("900.00")
	cardRepo := new(MockCardRepository)
	transactionRepo := new(MockTransactionRepository)

	transaction := &model.Transaction{
		ID:     uuid.New(),
		CardID: card.ID,
		Amount: decimal.RequireFromString("100.00"),
		Status: model.TransactionStatusApproved,
	}
	transactionRepo.On("FindByID", mock.Anything, transaction.ID).Return(transaction, nil)
	cardRepo.On("FindByID", mock.Anything, card.ID).Return(card, nil)

	svc := newTestPaymentService(cardRepo, transactionRepo, fmt.Errorf("store unavailable"))
	result, err := svc.ProcessRefund(context.Background(), transaction.ID)

	assert.NoError(t, err)
	assert.Equal(t, model.TransactionStatusFailed, result.Status)
	assert.Contains(t, result.Message, "store unavailable")
	// The rolled-back transaction keeps its APPROVED status in memory too.
	assert.Equal(t, model.TransactionStatusApproved, transaction.Status)
}

func TestPaymentService_GetTransactionStatus(t *testing.T) {
	cardRepo := new(MockCardRepository)
	transactionRepo := new(MockTransactionRepository)

	known := &model.Transaction{ID: uuid.New(), Status: model.TransactionStatusApproved}
	transactionRepo.On("FindByID", mock.Anything, known.ID).Return(known, nil)

	unknown := uuid.New()
	transactionRepo.On("FindByID", mock.Anything, unknown).Return(nil, gorm.ErrRecordNotFound)

	svc := newTestPaymentService(cardRepo, transactionRepo, nil)

	status, err := svc.GetTransactionStatus(context.Background(), known.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.TransactionStatusApproved, status)

	_, err = svc.GetTransactionStatus(context.Background(), unknown)
	assert.ErrorIs(t, err, errors.ErrTransactionNotFound)
}

func TestPaymentService_GetTransactionsForCard_Empty(t *testing.T) {
	cardRepo := new(MockCardRepository)
	transactionRepo := new(MockTransactionRepository)
	transactionRepo.On("FindByCardNumber", mock.Anything, "4242424242424242").Return([]model.Transaction{}, nil)

	svc := newTestPaymentService(cardRepo, transactionRepo, nil)
	transactions, err := svc.GetTransactionsForCard(context.Background(), "4242424242424242")

	assert.NoError(t, err)
	assert.Empty(t, transactions)
}
