package database

import (
	"fmt"
	"time"

	"github.com/Goro-naka/koepon-sub001/internal/config"
	"github.com/Goro-naka/koepon-sub001/internal/models"
	"github.com/Goro-naka/koepon-sub001/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDSN()

	var logLevel gormlogger.LogLevel
	if cfg.AppEnv == "development" {
		logLevel = gormlogger.Info
	} else {
		logLevel = gormlogger.Error
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		// Repositories manage their own transactions; unique violations
		// must surface as gorm.ErrDuplicatedKey for the idempotency gate.
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Row locks are held only for the short atomic mutation phase, so a
	// large pool stays healthy even with many concurrent exchanges.
	sqlDB.SetMaxIdleConns(50)
	sqlDB.SetMaxOpenConns(500)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	logger.Info("Database connected successfully")
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.UserBalance{},
		&models.LedgerTransaction{},
		&models.ExchangeItem{},
		&models.ExchangeTransaction{},
		&models.UserExchangeItem{},
		&models.Gacha{},
		&models.DrawResult{},
		&models.DrawPaymentRecord{},
	)

	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}
