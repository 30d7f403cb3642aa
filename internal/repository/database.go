package repository

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ozanberk/blogforum/internal/config"
	"github.com/ozanberk/blogforum/internal/models"
)

// Database wraps the gorm connection handed to handlers. It is built
// once at startup and injected; there is no package-level instance.
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the postgres connection described by cfg.
func NewDatabase(cfg *config.Config) (*Database, error) {
	var logLevel logger.LogLevel
	if cfg.Debug {
		logLevel = logger.Info
	} else {
		logLevel = logger.Warn
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// Surface unique violations as gorm.ErrDuplicatedKey so the
		// handlers can map them to conflict responses.
		TranslateError: true,
	}

	database, err := gorm.Open(postgres.Open(cfg.Database.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQL DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	db := &Database{DB: database}
	log.Println("Database connection established successfully")
	return db, nil
}

// Migrate creates or updates the schema for every model.
func (d *Database) Migrate() error {
	return d.DB.AutoMigrate(models.All()...)
}

// Close releases the underlying connection pool.
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health pings the database.
func (d *Database) Health() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
