package database

import (
	"fmt"
	"time"

	"pharmalink/internal/config"
	"pharmalink/internal/middleware"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var readDB *gorm.DB

// ConnectReadReplica opens a connection to an optional read replica.
// A missing replica host is not an error; reads fall back to the primary.
func ConnectReadReplica(cfg *config.Config) error {
	if cfg.DBReadHost == "" {
		return nil
	}

	port := cfg.DBReadPort
	if port == "" {
		port = cfg.DBPort
	}
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBReadHost,
		port,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		sslMode,
	)

	gormLogger := &CustomGormLogger{
		logger: middleware.Logger,
		Config: logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	}

	replica, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return fmt.Errorf("failed to connect to read replica: %w", err)
	}

	if err := configurePool(replica, cfg); err != nil {
		return err
	}

	middleware.Logger.Info("Read replica connected successfully")
	readDB = replica
	return nil
}

// GetReadDB returns the read replica connection, or nil when no replica is configured.
func GetReadDB() *gorm.DB {
	return readDB
}

// SetReadDB overrides the read replica connection. Used in tests.
func SetReadDB(db *gorm.DB) {
	readDB = db
}
