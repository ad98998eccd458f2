package database

import (
	"log"

	"github.com/servly/payment-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Booking{}, &models.TransactionRecord{}, &models.PayoutRecord{}); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// One payout per booking in steady state; the gateway-ref unique indexes
	// come from the model tags and back the idempotent ledger appends.
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_payout_per_booking
		ON payout_records (booking_id)
	`)

	return db
}
