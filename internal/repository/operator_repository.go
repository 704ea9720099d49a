package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cardpay/internal/model"
)

// OperatorRepository defines operator account persistence operations.
type OperatorRepository interface {
	Create(ctx context.Context, operator *model.Operator) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Operator, error)
	FindByEmail(ctx context.Context, email string) (*model.Operator, error)
}

type operatorRepository struct {
	db *gorm.DB
}

// NewOperatorRepository creates a new operator repository.
func NewOperatorRepository(db *gorm.DB) OperatorRepository {
	return &operatorRepository{db: db}
}

// Create creates a new operator account.
func (r *operatorRepository) Create(ctx context.Context, operator *model.Operator) error {
	return r.db.WithContext(ctx).Create(operator).Error
}

// FindByID finds an operator by ID.
func (r *operatorRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Operator, error) {
	var operator model.Operator
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&operator).Error; err != nil {
		return nil, err
	}
	return &operator, nil
}

// FindByEmail finds an operator by email.
func (r *operatorRepository) FindByEmail(ctx context.Context, email string) (*model.Operator, error) {
	var operator model.Operator
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&operator).Error; err != nil {
		return nil, err
	}
	return &operator, nil
}
