package main

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cardpay/internal/config"
	"cardpay/internal/db"
	"cardpay/internal/model"
	"cardpay/internal/repository"
)

// Seeds the well-known valid test cards without wiping existing data.
// Cards whose numbers already exist are skipped, so the command is safe to
// run repeatedly.
func main() {
	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if err := gormDB.AutoMigrate(&model.Card{}, &model.Transaction{}); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cardRepo := repository.NewCardRepository(gormDB)
	ctx := context.Background()
	now := time.Now()

	cards := []model.Card{
		{CardNumber: "4242424242424242", CardholderName: "John Doe", ExpirationDate: now.AddDate(2, 0, 0), CVV: "123", Balance: decimal.RequireFromString("1000.00")},
		{CardNumber: "5555555555554444", CardholderName: "Jane Smith", ExpirationDate: now.AddDate(1, 0, 0), CVV: "456", Balance: decimal.RequireFromString("500.00")},
		{CardNumber: "378282246310005", CardholderName: "Bob Johnson", ExpirationDate: now.AddDate(0, 6, 0), CVV: "789", Balance: decimal.RequireFromString("2000.00")},
		{CardNumber: "6011111111111117", CardholderName: "Alice Brown", ExpirationDate: now.AddDate(3, 0, 0), CVV: "321", Balance: decimal.RequireFromString("750.00")},
	}

	created := 0
	for _, card := range cards {
		if _, err := cardRepo.FindByNumber(ctx, card.CardNumber); err == nil {
			log.Printf("card %s already exists, skipping", card.CardNumber)
			continue
		} else if err != gorm.ErrRecordNotFound {
			log.Fatalf("check card %s: %v", card.CardNumber, err)
		}

		if err := cardRepo.Create(ctx, &card); err != nil {
			log.Fatalf("create card %s: %v", card.CardNumber, err)
		}
		log.Printf("created card %s (%s)", card.CardNumber, card.CardholderName)
		created++
	}

	log.Printf("seed complete: %d cards created", created)
}
