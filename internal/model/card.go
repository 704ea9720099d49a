package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Card represents a stored payment card with a spendable balance.
// The card number is the external lookup key and is unique across all cards.
type Card struct {
	ID             uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	CardNumber     string          `json:"card_number" gorm:"size:19;uniqueIndex;not null"`
	CardholderName string          `json:"cardholder_name" gorm:"size:255;not null"`
	ExpirationDate time.Time       `json:"expiration_date" gorm:"type:date;not null"`
	CVV            string          `json:"cvv" gorm:"size:4;not null"`
	Balance        decimal.Decimal `json:"balance" gorm:"type:decimal(20,2);not null;default:0"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Card) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
