package database

import (
	"context"
	"database/sql"
	"fmt"
)

// mysqlSchema and sqliteSchema describe the same tables.  The seating table
// is called seating_tables because TABLES is a reserved word in MySQL.
// seats.guest_id is unique so a guest can never hold two seats.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'STAFF',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS guests (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		firstname VARCHAR(100) NOT NULL,
		lastname VARCHAR(100) NOT NULL,
		name_key VARCHAR(210) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_guests_name (lastname, firstname),
		INDEX idx_guests_name_key (name_key)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS seating_tables (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		number INT NULL UNIQUE,
		name VARCHAR(100) NOT NULL,
		notes TEXT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS seats (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		table_id BIGINT UNSIGNED NOT NULL,
		seat_number INT NOT NULL,
		is_booked TINYINT(1) NOT NULL DEFAULT 0,
		is_received TINYINT(1) NOT NULL DEFAULT 0,
		guest_id BIGINT UNSIGNED NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_seats_table_number (table_id, seat_number),
		UNIQUE KEY uq_seats_guest (guest_id),
		CONSTRAINT fk_seats_table FOREIGN KEY (table_id) REFERENCES seating_tables(id),
		CONSTRAINT fk_seats_guest FOREIGN KEY (guest_id) REFERENCES guests(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS floor_map_images (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		filename VARCHAR(255) NOT NULL,
		data LONGTEXT NOT NULL,
		mime_type VARCHAR(100) NOT NULL,
		size INT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'STAFF',
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash TEXT NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS guests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		firstname TEXT NOT NULL,
		lastname TEXT NOT NULL,
		name_key TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_guests_name ON guests(lastname, firstname)`,
	`CREATE INDEX IF NOT EXISTS idx_guests_name_key ON guests(name_key)`,
	`CREATE TABLE IF NOT EXISTS seating_tables (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		number INTEGER NULL UNIQUE,
		name TEXT NOT NULL,
		notes TEXT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS seats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		table_id INTEGER NOT NULL REFERENCES seating_tables(id),
		seat_number INTEGER NOT NULL,
		is_booked INTEGER NOT NULL DEFAULT 0,
		is_received INTEGER NOT NULL DEFAULT 0,
		guest_id INTEGER NULL REFERENCES guests(id),
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (table_id, seat_number)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_seats_guest ON seats(guest_id)`,
	`CREATE TABLE IF NOT EXISTS floor_map_images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL,
		data TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		size INTEGER NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// CreateSchema creates every table that does not exist yet.
func CreateSchema(ctx context.Context, db *sql.DB, driver string) error {
	stmts := mysqlSchema
	if driver == DriverSQLite {
		stmts = sqliteSchema
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
