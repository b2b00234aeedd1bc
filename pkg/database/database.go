package database

import (
	"fmt"
	"time"

	"pollbox/internal/config"
	"pollbox/internal/domain/poll"
	"pollbox/internal/domain/user"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens the Postgres connection and configures the pool.
// TranslateError is required so unique violations surface as
// gorm.ErrDuplicatedKey in the repositories.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get generic database object: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Migrate applies the schema for all entities, including the load-bearing
// unique index on votes (user_id, question_id).
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&user.User{},
		&user.Group{},
		&user.UserSession{},
		&poll.Question{},
		&poll.Choice{},
		&poll.Vote{},
	)
}

// HealthCheck pings the underlying connection.
func HealthCheck(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
