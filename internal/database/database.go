package database

import (
	"fmt"

	"github.com/ndrake454/QuizLight-sub001/internal/config"
	"github.com/ndrake454/QuizLight-sub001/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	// TranslateError turns driver duplicate-key failures into
	// gorm.ErrDuplicatedKey, which the answer ledger relies on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	logger.Info("database connected", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Host{},
		&models.Category{},
		&models.Question{},
		&models.Option{},
		&models.AcceptableAnswer{},
		&models.Session{},
		&models.SessionQuestion{},
		&models.Participant{},
		&models.Answer{},
		&models.SessionEvent{},
	)
}
