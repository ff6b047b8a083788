package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"esg-compliance-service/config"

	_ "github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// Database represents the database connection
type Database struct {
	db *sql.DB
}

// NewDatabase creates a new database connection
func NewDatabase(cfg *config.Config) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection with exponential backoff retry
	var waitInterval time.Duration = 1 * time.Second
	for {
		if err := db.Ping(); err == nil {
			break // Connection successful
		} else {
			log.Printf("Database connection failed, retrying in %v: %v", waitInterval, err)
		}
		time.Sleep(waitInterval)
		waitInterval *= 2 // Exponential backoff: 1s, 2s, 4s, 8s, ...
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Database{db: db}, nil
}

// NewWithDB wraps an existing connection; used by tests.
func NewWithDB(db *sql.DB) *Database {
	return &Database{db: db}
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// CreateTables creates the service tables if they don't exist
func (d *Database) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS esg_data_points (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			project_id VARCHAR(36) NOT NULL,
			category ENUM('environmental', 'social', 'governance') NOT NULL,
			subcategory VARCHAR(255) DEFAULT '',
			metric_name VARCHAR(255) NOT NULL,
			metric_code VARCHAR(255) NOT NULL,
			value DOUBLE NULL,
			unit VARCHAR(50) DEFAULT '',
			year INT NOT NULL,
			period ENUM('annual', 'quarterly', 'monthly') NOT NULL DEFAULT 'annual',
			data_source VARCHAR(255) DEFAULT '',
			confidence FLOAT DEFAULT 0.5,
			validation_status ENUM('PENDING', 'VALIDATED', 'REJECTED', 'REVIEW') DEFAULT 'PENDING',
			validation JSON NULL,
			metadata JSON NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_data_points_project (project_id),
			INDEX idx_data_points_project_year (project_id, year),
			INDEX idx_data_points_metric_code (metric_code)
		)`,
		`CREATE TABLE IF NOT EXISTS framework_assessments (
			project_id VARCHAR(36) NOT NULL,
			framework ENUM('tcfd', 'csrd', 'issb', 'compliance') NOT NULL,
			sector VARCHAR(255) DEFAULT '',
			payload JSON NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (project_id, framework)
		)`,
		`CREATE TABLE IF NOT EXISTS esg_reports (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			project_id VARCHAR(36) NOT NULL,
			version INT NOT NULL,
			sections JSON NOT NULL,
			xbrl_document LONGTEXT NULL,
			provider VARCHAR(64) DEFAULT '',
			model VARCHAR(64) DEFAULT '',
			fallback BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uk_reports_project_version (project_id, version)
		)`,
		`CREATE TABLE IF NOT EXISTS report_heads (
			project_id VARCHAR(36) NOT NULL PRIMARY KEY,
			last_version INT NOT NULL DEFAULT 0,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := d.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	log.Println("esg tables created/verified successfully")
	return nil
}
