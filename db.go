package main

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

var db *sql.DB

func initDB(path string) error {
	// Close previous connection if any (prevents goroutine leaks in tests)
	if db != nil {
		db.Close()
	}
	var err error
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err = sql.Open("sqlite", path+sep+"_journal_mode=WAL&_busy_timeout=10000&_foreign_keys=1")
	if err != nil {
		return err
	}

	// SQLite handles 1 writer + multiple readers with WAL mode
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	// Explicitly set WAL mode (some drivers don't parse connection string params correctly)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000"); err != nil {
		return fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	return runMigrations()
}

func runMigrations() error {
	catalogTables := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE COLLATE NOCASE,
			volume TEXT DEFAULT '',
			preform_weight REAL DEFAULT 0,
			cap_type TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS raw_materials (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE COLLATE NOCASE,
			material_type TEXT DEFAULT '',
			unit TEXT DEFAULT '',
			current_stock REAL NOT NULL DEFAULT 0 CHECK(current_stock >= 0),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS bom (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_id INTEGER NOT NULL,
			raw_material_id INTEGER NOT NULL,
			consumption_per_unit REAL NOT NULL CHECK(consumption_per_unit > 0),
			UNIQUE(product_id, raw_material_id),
			FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE,
			FOREIGN KEY (raw_material_id) REFERENCES raw_materials(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS product_stock (
			product_id INTEGER PRIMARY KEY,
			current_stock INTEGER NOT NULL DEFAULT 0 CHECK(current_stock >= 0),
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
		)`,
	}
	for _, t := range catalogTables {
		if _, err := db.Exec(t); err != nil {
			return fmt.Errorf("catalog migration: %w", err)
		}
	}

	partnerTables := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			phone TEXT DEFAULT '',
			address TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS suppliers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			phone TEXT DEFAULT '',
			address TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, t := range partnerTables {
		if _, err := db.Exec(t); err != nil {
			return fmt.Errorf("partner migration: %w", err)
		}
	}

	transactionTables := []string{
		`CREATE TABLE IF NOT EXISTS production (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			product_id INTEGER NOT NULL,
			quantity_produced INTEGER NOT NULL CHECK(quantity_produced > 0),
			rejects INTEGER DEFAULT 0 CHECK(rejects >= 0),
			remarks TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (product_id) REFERENCES products(id)
		)`,
		`CREATE TABLE IF NOT EXISTS purchase (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			supplier_id INTEGER NOT NULL,
			raw_material_id INTEGER NOT NULL,
			quantity REAL NOT NULL CHECK(quantity >= 0),
			rate REAL DEFAULT 0,
			bill_number TEXT DEFAULT '',
			remarks TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (supplier_id) REFERENCES suppliers(id),
			FOREIGN KEY (raw_material_id) REFERENCES raw_materials(id)
		)`,
		`CREATE TABLE IF NOT EXISTS sales (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			customer_id INTEGER NOT NULL,
			product_id INTEGER NOT NULL,
			quantity INTEGER NOT NULL CHECK(quantity > 0),
			dispatch_type TEXT DEFAULT '',
			vehicle_number TEXT DEFAULT '',
			remarks TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (customer_id) REFERENCES customers(id),
			FOREIGN KEY (product_id) REFERENCES products(id)
		)`,
	}
	for _, t := range transactionTables {
		if _, err := db.Exec(t); err != nil {
			return fmt.Errorf("transaction migration: %w", err)
		}
	}

	authTables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			display_name TEXT DEFAULT '',
			role TEXT NOT NULL DEFAULT 'viewer',
			active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			last_login DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			expires_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS api_keys (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			token TEXT NOT NULL UNIQUE,
			name TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			revoked INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT DEFAULT '',
			action TEXT DEFAULT '',
			module TEXT DEFAULT '',
			record_id TEXT DEFAULT '',
			summary TEXT DEFAULT '',
			ip_address TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, t := range authTables {
		if _, err := db.Exec(t); err != nil {
			return fmt.Errorf("auth migration: %w", err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_bom_product ON bom(product_id)`,
		`CREATE INDEX IF NOT EXISTS idx_production_date ON production(date)`,
		`CREATE INDEX IF NOT EXISTS idx_production_product ON production(product_id)`,
		`CREATE INDEX IF NOT EXISTS idx_purchase_date ON purchase(date)`,
		`CREATE INDEX IF NOT EXISTS idx_purchase_supplier ON purchase(supplier_id)`,
		`CREATE INDEX IF NOT EXISTS idx_purchase_material ON purchase(raw_material_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(date)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_customer ON sales(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_product ON sales(product_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_expiry ON sessions(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_created ON audit_log(created_at)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("index migration: %w", err)
		}
	}

	return nil
}

// seedDB creates the default accounts on an empty users table. Passwords must
// be changed on first login.
func seedDB() {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		log.Printf("seed check failed: %v", err)
		return
	}
	if count > 0 {
		return
	}

	defaults := []struct {
		username, display, role string
	}{
		{"admin", "Administrator", "admin"},
		{"operator", "Data Entry", "data_entry"},
		{"viewer", "Viewer", "viewer"},
	}
	for _, u := range defaults {
		hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("seed hash failed: %v", err)
			continue
		}
		if _, err := db.Exec(
			"INSERT INTO users (username, password_hash, display_name, role) VALUES (?, ?, ?, ?)",
			u.username, string(hash), u.display, u.role); err != nil {
			log.Printf("seed user %s failed: %v", u.username, err)
		}
	}
	log.Printf("seeded default users (password: changeme)")
}
