package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionStatus represents the outcome status of a payment attempt.
type TransactionStatus string

const (
	TransactionStatusApproved TransactionStatus = "APPROVED"
	TransactionStatusDeclined TransactionStatus = "DECLINED"
	TransactionStatusFailed   TransactionStatus = "FAILED"
	TransactionStatusRefunded TransactionStatus = "REFUNDED"
)

// Transaction records one approved payment against a card. Declined and
// failed attempts are never persisted, so the only stored status transition
// is APPROVED -> REFUNDED.
type Transaction struct {
	ID          uuid.UUID         `json:"id" gorm:"type:char(36);primaryKey"`
	CardID      uuid.UUID         `json:"card_id" gorm:"type:char(36);not null;index"`
	Amount      decimal.Decimal   `json:"amount" gorm:"type:decimal(20,2);not null"`
	Status      TransactionStatus `json:"status" gorm:"type:varchar(10);not null;index"`
	Description string            `json:"description,omitempty" gorm:"size:255"`
	CreatedAt   time.Time         `json:"timestamp"`
	UpdatedAt   time.Time         `json:"updated_at"`

	// Relations
	Card Card `json:"-" gorm:"foreignKey:CardID"`
}

// BeforeCreate sets UUID before creating the record.
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
