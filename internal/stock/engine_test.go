package stock

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	_ "modernc.org/sqlite"
)

var testDBSeq int

func setupEngineTestDB(t *testing.T) *sql.DB {
	t.Helper()
	testDBSeq++
	dsn := fmt.Sprintf("file:enginetest%d?mode=memory&cache=shared&_journal_mode=WAL&_busy_timeout=10000&_foreign_keys=1", testDBSeq)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := []string{
		`CREATE TABLE products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE COLLATE NOCASE,
			volume TEXT DEFAULT '',
			preform_weight REAL DEFAULT 0,
			cap_type TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE raw_materials (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE COLLATE NOCASE,
			material_type TEXT DEFAULT '',
			unit TEXT DEFAULT '',
			current_stock REAL NOT NULL DEFAULT 0 CHECK(current_stock >= 0),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE bom (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_id INTEGER NOT NULL,
			raw_material_id INTEGER NOT NULL,
			consumption_per_unit REAL NOT NULL CHECK(consumption_per_unit > 0),
			UNIQUE(product_id, raw_material_id)
		)`,
		`CREATE TABLE product_stock (
			product_id INTEGER PRIMARY KEY,
			current_stock INTEGER NOT NULL DEFAULT 0 CHECK(current_stock >= 0),
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE customers (
			id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL,
			phone TEXT DEFAULT '', address TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE suppliers (
			id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL,
			phone TEXT DEFAULT '', address TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE production (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL, product_id INTEGER NOT NULL,
			quantity_produced INTEGER NOT NULL CHECK(quantity_produced > 0),
			rejects INTEGER DEFAULT 0, remarks TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE purchase (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL, supplier_id INTEGER NOT NULL, raw_material_id INTEGER NOT NULL,
			quantity REAL NOT NULL CHECK(quantity >= 0), rate REAL DEFAULT 0,
			bill_number TEXT DEFAULT '', remarks TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE sales (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL, customer_id INTEGER NOT NULL, product_id INTEGER NOT NULL,
			quantity INTEGER NOT NULL CHECK(quantity > 0),
			dispatch_type TEXT DEFAULT '', vehicle_number TEXT DEFAULT '', remarks TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, s := range schema {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func seedProduct(t *testing.T, db *sql.DB, name string) int {
	t.Helper()
	res, err := db.Exec("INSERT INTO products (name) VALUES (?)", name)
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	id, _ := res.LastInsertId()
	return int(id)
}

func seedMaterial(t *testing.T, db *sql.DB, name string, stock float64) int {
	t.Helper()
	res, err := db.Exec("INSERT INTO raw_materials (name, unit, current_stock) VALUES (?, 'kg', ?)", name, stock)
	if err != nil {
		t.Fatalf("seed material: %v", err)
	}
	id, _ := res.LastInsertId()
	return int(id)
}

func seedBOM(t *testing.T, db *sql.DB, productID, materialID int, perUnit float64) {
	t.Helper()
	if _, err := db.Exec("INSERT INTO bom (product_id, raw_material_id, consumption_per_unit) VALUES (?, ?, ?)",
		productID, materialID, perUnit); err != nil {
		t.Fatalf("seed bom: %v", err)
	}
}

func seedCustomer(t *testing.T, db *sql.DB) int {
	t.Helper()
	res, err := db.Exec("INSERT INTO customers (name) VALUES ('Acme Traders')")
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	id, _ := res.LastInsertId()
	return int(id)
}

func seedSupplier(t *testing.T, db *sql.DB) int {
	t.Helper()
	res, err := db.Exec("INSERT INTO suppliers (name) VALUES ('Polymer Supply Co')")
	if err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
	id, _ := res.LastInsertId()
	return int(id)
}

func materialStock(t *testing.T, db *sql.DB, id int) float64 {
	t.Helper()
	var s float64
	if err := db.QueryRow("SELECT current_stock FROM raw_materials WHERE id = ?", id).Scan(&s); err != nil {
		t.Fatalf("read material stock: %v", err)
	}
	return s
}

func finishedStock(t *testing.T, db *sql.DB, productID int) int {
	t.Helper()
	var s int
	err := db.QueryRow("SELECT current_stock FROM product_stock WHERE product_id = ?", productID).Scan(&s)
	if err == sql.ErrNoRows {
		return 0
	}
	if err != nil {
		t.Fatalf("read finished stock: %v", err)
	}
	return s
}

func TestRecordProductionSuccess(t *testing.T) {
	db := setupEngineTestDB(t)
	e := NewEngine(db)

	productID := seedProduct(t, db, "Bottle 500ml")
	materialID := seedMaterial(t, db, "PET Preform", 10)
	seedBOM(t, db, productID, materialID, 2)

	res, err := e.RecordProduction(ProductionRequest{
		Date: "2026-08-30", ProductID: productID, Quantity: 4,
	})
	if err != nil {
		t.Fatalf("RecordProduction: %v", err)
	}
	if res.FinishedStock != 4 {
		t.Errorf("finished stock = %d, want 4", res.FinishedStock)
	}
	if len(res.Consumed) != 1 || res.Consumed[0].Quantity != 8 {
		t.Errorf("consumed = %+v, want one entry of 8", res.Consumed)
	}
	if got := materialStock(t, db, materialID); got != 2 {
		t.Errorf("material stock = %g, want 2", got)
	}
	if got := finishedStock(t, db, productID); got != 4 {
		t.Errorf("product stock = %d, want 4", got)
	}
}

func TestRecordProductionInsufficientMaterial(t *testing.T) {
	db := setupEngineTestDB(t)
	e := NewEngine(db)

	productID := seedProduct(t, db, "Bottle 500ml")
	materialID := seedMaterial(t, db, "PET Preform", 10)
	seedBOM(t, db, productID, materialID, 2)

	if _, err := e.RecordProduction(ProductionRequest{Date: "2026-08-30", ProductID: productID, Quantity: 4}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Only 2 left, a run of 2 needs 4.
	_, err := e.RecordProduction(ProductionRequest{Date: "2026-08-30", ProductID: productID, Quantity: 2})
	if !IsInsufficientStock(err) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	var ise *InsufficientStockError
	errors.As(err, &ise)
	if ise.Kind != KindRawMaterial || ise.Available != 2 || ise.Required != 4 {
		t.Errorf("error detail = %+v", ise)
	}

	// Nothing from the failed run may persist.
	var runs int
	db.QueryRow("SELECT COUNT(*) FROM production").Scan(&runs)
	if runs != 1 {
		t.Errorf("production rows = %d, want 1", runs)
	}
	if got := materialStock(t, db, materialID); got != 2 {
		t.Errorf("material stock = %g, want 2", got)
	}
	if got := finishedStock(t, db, productID); got != 4 {
		t.Errorf("product stock = %d, want 4", got)
	}
}

func TestRecordProductionFirstShortMaterialReported(t *testing.T) {
	db := setupEngineTestDB(t)
	e := NewEngine(db)

	productID := seedProduct(t, db, "Bottle 1L")
	m1 := seedMaterial(t, db, "PET Preform", 1)
	m2 := seedMaterial(t, db, "Cap 28mm", 0)
	seedBOM(t, db, productID, m1, 1)
	seedBOM(t, db, productID, m2, 1)

	_, err := e.RecordProduction(ProductionRequest{Date: "2026-08-30", ProductID: productID, Quantity: 5})
	var ise *InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if ise.ID != m1 {
		t.Errorf("reported material = %d, want first short entry %d", ise.ID, m1)
	}
}

func TestRecordProductionNoRecipe(t *testing.T) {
	db := setupEngineTestDB(t)
	e := NewEngine(db)

	productID := seedProduct(t, db, "Bottle 2L")
	_, err := e.RecordProduction(ProductionRequest{Date: "2026-08-30", ProductID: productID, Quantity: 1})
	if !errors.Is(err, ErrNoRecipe) {
		t.Fatalf("err = %v, want ErrNoRecipe", err)
	}
}

func TestRecordProductionUnknownProduct(t *testing.T) {
	db := setupEngineTestDB(t)
	e := NewEngine(db)

	_, err := e.RecordProduction(ProductionRequest{Date: "2026-08-30", ProductID: 99, Quantity: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRecordSale(t *testing.T) {
	db := setupEngineTestDB(t)
	e := NewEngine(db)

	productID := seedProduct(t, db, "Bottle 500ml")
	materialID := seedMaterial(t, db, "PET Preform", 100)
	seedBOM(t, db, productID, materialID, 1)
	customerID := seedCustomer(t, db)

	// No finished stock yet: a missing counter row reads as zero.
	_, err := e.RecordSale(SaleRequest{Date: "2026-08-30", CustomerID: customerID, ProductID: productID, Quantity: 1})
	if !IsInsufficientStock(err) {
		t.Fatalf("sale before production: err = %v, want InsufficientStockError", err)
	}

	if _, err := e.RecordProduction(ProductionRequest{Date: "2026-08-30", ProductID: productID, Quantity: 10}); err != nil {
		t.Fatalf("production: %v", err)
	}

	res, err := e.RecordSale(SaleRequest{Date: "2026-08-31", CustomerID: customerID, ProductID: productID, Quantity: 6})
	if err != nil {
		t.Fatalf("sale: %v", err)
	}
	if res.RemainingStock != 4 {
		t.Errorf("remaining = %d, want 4", res.RemainingStock)
	}

	// Oversell rejected, no row written.
	_, err = e.RecordSale(SaleRequest{Date: "2026-08-31", CustomerID: customerID, ProductID: productID, Quantity: 5})
	if !IsInsufficientStock(err) {
		t.Fatalf("oversell: err = %v, want InsufficientStockError", err)
	}
	var sales int
	db.QueryRow("SELECT COUNT(*) FROM sales").Scan(&sales)
	if sales != 1 {
		t.Errorf("sales rows = %d, want 1", sales)
	}
	if got := finishedStock(t, db, productID); got != 4 {
		t.Errorf("product stock = %d, want 4", got)
	}
}

func TestRecordSaleUnknownCustomer(t *testing.T) {
	db := setupEngineTestDB(t)
	e := NewEngine(db)

	productID := seedProduct(t, db, "Bottle 500ml")
	_, err := e.RecordSale(SaleRequest{Date: "2026-08-30", CustomerID: 42, ProductID: productID, Quantity: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRecordPurchase(t *testing.T) {
	db := setupEngineTestDB(t)
	e := NewEngine(db)

	materialID := seedMaterial(t, db, "PET Preform", 5)
	supplierID := seedSupplier(t, db)

	res, err := e.RecordPurchase(PurchaseRequest{
		Date: "2026-08-30", SupplierID: supplierID, RawMaterialID: materialID,
		Quantity: 20.5, Rate: 3.2, BillNumber: "B-101",
	})
	if err != nil {
		t.Fatalf("RecordPurchase: %v", err)
	}
	if res.MaterialStock != 25.5 {
		t.Errorf("material stock = %g, want 25.5", res.MaterialStock)
	}

	_, err = e.RecordPurchase(PurchaseRequest{Date: "2026-08-30", SupplierID: 99, RawMaterialID: materialID, Quantity: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown supplier: err = %v, want ErrNotFound", err)
	}
	_, err = e.RecordPurchase(PurchaseRequest{Date: "2026-08-30", SupplierID: supplierID, RawMaterialID: 99, Quantity: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown material: err = %v, want ErrNotFound", err)
	}
}

func TestRecordPurchaseZeroQuantity(t *testing.T) {
	db := setupEngineTestDB(t)
	e := NewEngine(db)

	materialID := seedMaterial(t, db, "PET Preform", 5)
	supplierID := seedSupplier(t, db)

	// A zero-quantity purchase is a valid record (a bill with no goods
	// movement); it commits and leaves stock untouched.
	res, err := e.RecordPurchase(PurchaseRequest{
		Date: "2026-08-30", SupplierID: supplierID, RawMaterialID: materialID,
		Quantity: 0, Rate: 3.2, BillNumber: "B-102",
	})
	if err != nil {
		t.Fatalf("RecordPurchase: %v", err)
	}
	if res.MaterialStock != 5 {
		t.Errorf("material stock = %g, want 5", res.MaterialStock)
	}
	var rows int
	db.QueryRow("SELECT COUNT(*) FROM purchase").Scan(&rows)
	if rows != 1 {
		t.Errorf("purchase rows = %d, want 1", rows)
	}
}

// Concurrent production runs must never overdraw the material. With a stock
// of S and r units consumed per run, exactly floor(S/r) runs may succeed.
func TestConcurrentProductionNeverOverdraws(t *testing.T) {
	db := setupEngineTestDB(t)
	// Serialize transactions through a single connection so every goroutine
	// contends on the same stock rows.
	db.SetMaxOpenConns(1)
	e := NewEngine(db)

	productID := seedProduct(t, db, "Bottle 500ml")
	materialID := seedMaterial(t, db, "PET Preform", 10)
	seedBOM(t, db, productID, materialID, 3)

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes, shortfalls := 0, 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.RecordProduction(ProductionRequest{Date: "2026-08-30", ProductID: productID, Quantity: 1})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case IsInsufficientStock(err):
				shortfalls++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 3 {
		t.Errorf("successes = %d, want 3", successes)
	}
	if shortfalls != workers-3 {
		t.Errorf("shortfalls = %d, want %d", shortfalls, workers-3)
	}
	if got := materialStock(t, db, materialID); got != 1 {
		t.Errorf("material stock = %g, want 1", got)
	}
	if got := finishedStock(t, db, productID); got != 3 {
		t.Errorf("product stock = %d, want 3", got)
	}
}

// The schema backstop: no code path may drive a stock column negative.
func TestNegativeStockRejectedBySchema(t *testing.T) {
	db := setupEngineTestDB(t)

	materialID := seedMaterial(t, db, "PET Preform", 5)
	_, err := db.Exec("UPDATE raw_materials SET current_stock = current_stock - 10 WHERE id = ?", materialID)
	if err == nil {
		t.Fatal("expected CHECK constraint violation")
	}
	if got := materialStock(t, db, materialID); got != 5 {
		t.Errorf("material stock = %g, want 5", got)
	}
}
