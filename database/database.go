package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"
)

var DB *sql.DB

// InitDatabase opens the Postgres connection from the given URL.
func InitDatabase(databaseURL string) error {
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	var err error
	DB, err = sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	if err := DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %v", err)
	}

	log.Println("Successfully connected to database")
	return nil
}

// CreateTables creates the catalog schema if it does not exist.
func CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			my_price DECIMAL(10,2) NOT NULL DEFAULT 0,
			currency VARCHAR(3) DEFAULT 'KM',
			link TEXT,
			scraped_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS price_snapshots (
			id SERIAL PRIMARY KEY,
			product_id INTEGER REFERENCES products(id) ON DELETE CASCADE,
			source_id VARCHAR(50) NOT NULL,
			matched_name TEXT DEFAULT '',
			price DECIMAL(10,2) NOT NULL DEFAULT 0,
			url TEXT DEFAULT '',
			found BOOLEAN DEFAULT FALSE,
			match_score INTEGER DEFAULT 0,
			note TEXT DEFAULT '',
			scraped_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_snapshots_product ON price_snapshots (product_id, scraped_at DESC)`,
	}

	for _, query := range queries {
		if _, err := DB.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %v", err)
		}
	}
	return nil
}

// CloseDatabase closes the connection pool.
func CloseDatabase() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
