// Package stock implements the inventory transaction engine: validation and
// atomic application of every stock-affecting operation (production runs,
// purchases, sales). All stock mutation in the application funnels through
// this package; each operation executes its reads and writes inside a single
// database transaction.
package stock

import (
	"database/sql"
	"fmt"
)

// Engine applies stock transactions against the backing store.
type Engine struct {
	DB *sql.DB
}

// NewEngine returns an Engine bound to db.
func NewEngine(db *sql.DB) *Engine {
	return &Engine{DB: db}
}

// ProductionRequest describes one production run to record.
type ProductionRequest struct {
	Date      string `json:"date"`
	ProductID int    `json:"product_id"`
	Quantity  int    `json:"quantity_produced"`
	Rejects   int    `json:"rejects"`
	Remarks   string `json:"remarks"`
}

// MaterialUse is one raw material consumed by a production run.
type MaterialUse struct {
	RawMaterialID int     `json:"raw_material_id"`
	Name          string  `json:"name"`
	Quantity      float64 `json:"quantity"`
}

// ProductionResult reports a committed production run.
type ProductionResult struct {
	ProductionID  int64         `json:"production_id"`
	FinishedStock int           `json:"finished_stock"`
	Consumed      []MaterialUse `json:"consumed"`
}

// PurchaseRequest describes one raw material purchase to record.
type PurchaseRequest struct {
	Date          string  `json:"date"`
	SupplierID    int     `json:"supplier_id"`
	RawMaterialID int     `json:"raw_material_id"`
	Quantity      float64 `json:"quantity"`
	Rate          float64 `json:"rate"`
	BillNumber    string  `json:"bill_number"`
	Remarks       string  `json:"remarks"`
}

// PurchaseResult reports a committed purchase.
type PurchaseResult struct {
	PurchaseID    int64   `json:"purchase_id"`
	MaterialStock float64 `json:"material_stock"`
}

// SaleRequest describes one dispatch of finished goods to record.
type SaleRequest struct {
	Date          string `json:"date"`
	CustomerID    int    `json:"customer_id"`
	ProductID     int    `json:"product_id"`
	Quantity      int    `json:"quantity"`
	DispatchType  string `json:"dispatch_type"`
	VehicleNumber string `json:"vehicle_number"`
	Remarks       string `json:"remarks"`
}

// SaleResult reports a committed sale.
type SaleResult struct {
	SaleID         int64 `json:"sale_id"`
	RemainingStock int   `json:"remaining_stock"`
}

// RecordProduction validates a production run against the product's BOM and,
// if every required material has sufficient stock, appends the production
// record, increments finished-goods stock and decrements each consumed
// material, all in one transaction. The stock check is first-fail: the first
// BOM entry (in raw_material_id order) that cannot cover the requirement
// aborts the run with an InsufficientStockError and nothing is written.
func (e *Engine) RecordProduction(req ProductionRequest) (*ProductionResult, error) {
	tx, err := e.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin production transaction: %w", err)
	}
	defer tx.Rollback()
	repo := &txRepo{tx: tx}

	ok, err := repo.productExists(req.ProductID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, req.ProductID)
	}

	lines, err := repo.getBOM(req.ProductID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrNoRecipe
	}

	// Validation before mutation: every requirement must be covered before
	// any row changes.
	qty := float64(req.Quantity)
	for _, l := range lines {
		required := qty * l.PerUnit
		if l.Stock < required {
			return nil, &InsufficientStockError{
				Kind:      KindRawMaterial,
				ID:        l.MaterialID,
				Name:      l.MaterialName,
				Available: l.Stock,
				Required:  required,
			}
		}
	}

	id, err := repo.insertProduction(req)
	if err != nil {
		return nil, err
	}
	if err := repo.addProductStock(req.ProductID, req.Quantity); err != nil {
		return nil, err
	}

	consumed := make([]MaterialUse, 0, len(lines))
	for _, l := range lines {
		required := qty * l.PerUnit
		applied, err := repo.deductMaterialStock(l.MaterialID, required)
		if err != nil {
			return nil, err
		}
		if !applied {
			// The pre-check passed but a concurrent transaction consumed the
			// material before our write. Abort; the deferred rollback undoes
			// everything applied so far.
			return nil, &InsufficientStockError{
				Kind:     KindRawMaterial,
				ID:       l.MaterialID,
				Name:     l.MaterialName,
				Required: required,
			}
		}
		consumed = append(consumed, MaterialUse{RawMaterialID: l.MaterialID, Name: l.MaterialName, Quantity: required})
	}

	finished, _, err := repo.getProductStock(req.ProductID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit production transaction: %w", err)
	}
	return &ProductionResult{ProductionID: id, FinishedStock: finished, Consumed: consumed}, nil
}

// RecordSale checks finished-goods stock (a missing row reads as zero),
// appends the sales record and decrements the stock, atomically. A shortfall
// yields an InsufficientStockError with no writes.
func (e *Engine) RecordSale(req SaleRequest) (*SaleResult, error) {
	tx, err := e.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin sale transaction: %w", err)
	}
	defer tx.Rollback()
	repo := &txRepo{tx: tx}

	ok, err := repo.customerExists(req.CustomerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: customer %d", ErrNotFound, req.CustomerID)
	}
	ok, err = repo.productExists(req.ProductID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, req.ProductID)
	}

	var name string
	if err := tx.QueryRow("SELECT name FROM products WHERE id = ?", req.ProductID).Scan(&name); err != nil {
		return nil, err
	}

	available, _, err := repo.getProductStock(req.ProductID)
	if err != nil {
		return nil, err
	}
	if available < req.Quantity {
		return nil, &InsufficientStockError{
			Kind:      KindProduct,
			ID:        req.ProductID,
			Name:      name,
			Available: float64(available),
			Required:  float64(req.Quantity),
		}
	}

	id, err := repo.insertSale(req)
	if err != nil {
		return nil, err
	}
	applied, err := repo.deductProductStock(req.ProductID, req.Quantity)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, &InsufficientStockError{
			Kind:     KindProduct,
			ID:       req.ProductID,
			Name:     name,
			Required: float64(req.Quantity),
		}
	}

	remaining, _, err := repo.getProductStock(req.ProductID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit sale transaction: %w", err)
	}
	return &SaleResult{SaleID: id, RemainingStock: remaining}, nil
}

// RecordPurchase appends the purchase record and increments the material's
// stock. Purchases have no stock validation branch: they always succeed once
// the referenced supplier and material exist.
func (e *Engine) RecordPurchase(req PurchaseRequest) (*PurchaseResult, error) {
	tx, err := e.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin purchase transaction: %w", err)
	}
	defer tx.Rollback()
	repo := &txRepo{tx: tx}

	ok, err := repo.supplierExists(req.SupplierID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: supplier %d", ErrNotFound, req.SupplierID)
	}
	if _, err := repo.materialName(req.RawMaterialID); err != nil {
		return nil, err
	}

	id, err := repo.insertPurchase(req)
	if err != nil {
		return nil, err
	}
	if err := repo.addMaterialStock(req.RawMaterialID, req.Quantity); err != nil {
		return nil, err
	}

	var level float64
	if err := tx.QueryRow("SELECT current_stock FROM raw_materials WHERE id = ?", req.RawMaterialID).Scan(&level); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit purchase transaction: %w", err)
	}
	return &PurchaseResult{PurchaseID: id, MaterialStock: level}, nil
}
