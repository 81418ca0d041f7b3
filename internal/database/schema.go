package database

import (
	"context"
	"database/sql"
)

// schema holds the DDL for every server-authoritative table.  Statements use
// IF NOT EXISTS so Bootstrap is safe to run on every startup.  The device
// cart itself is never stored here: only tickets, staging submissions, the
// area directory, the product catalog and recorded payments are
// server-authoritative.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS areas (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		business_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(100) NOT NULL,
		position INT NOT NULL DEFAULT 0,
		UNIQUE KEY uq_areas_business_name (business_id, name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		business_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(191) NOT NULL,
		unit_price DECIMAL(10,2) NOT NULL DEFAULT 0,
		area_id BIGINT UNSIGNED NULL,
		KEY idx_products_business (business_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS tickets (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		business_id BIGINT UNSIGNED NOT NULL,
		table_id BIGINT UNSIGNED NOT NULL,
		area_name VARCHAR(100) NOT NULL DEFAULT 'General',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_tickets_business_table (business_id, table_id),
		KEY idx_tickets_area (business_id, area_name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS ticket_items (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		ticket_id BIGINT UNSIGNED NOT NULL,
		product_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(191) NOT NULL,
		quantity INT NOT NULL,
		unit_price DECIMAL(10,2) NOT NULL DEFAULT 0,
		status ENUM('pending','preparing','ready','completed') NOT NULL DEFAULT 'pending',
		KEY idx_ticket_items_ticket (ticket_id),
		CONSTRAINT fk_ticket_items_ticket FOREIGN KEY (ticket_id)
			REFERENCES tickets (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS staging_orders (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		business_id BIGINT UNSIGNED NOT NULL,
		table_id BIGINT UNSIGNED NOT NULL,
		product_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(191) NOT NULL DEFAULT '',
		quantity INT NOT NULL,
		unit_price DECIMAL(10,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_staging_business_table (business_id, table_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS payments (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		business_id BIGINT UNSIGNED NOT NULL,
		table_id BIGINT UNSIGNED NOT NULL,
		person_name VARCHAR(191) NOT NULL DEFAULT '',
		transaction_ref VARCHAR(191) NOT NULL,
		method VARCHAR(50) NOT NULL,
		amount DECIMAL(10,2) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_payments_business_table (business_id, table_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Bootstrap creates the server-side tables when they do not exist yet.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
