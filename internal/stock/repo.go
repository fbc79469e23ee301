package stock

import (
	"database/sql"
	"fmt"
)

// txRepo is the stock repository bound to a single transaction. Every engine
// operation creates one, so all reads and writes of an operation observe the
// same snapshot. No other code may touch the stock columns.
type txRepo struct {
	tx *sql.Tx
}

// bomLine is one BOM entry joined with the material's live stock.
type bomLine struct {
	MaterialID   int
	MaterialName string
	PerUnit      float64
	Stock        float64
}

// getBOM returns the product's BOM entries in raw_material_id order. The
// stable order fixes which material is reported on a first-fail check.
func (r *txRepo) getBOM(productID int) ([]bomLine, error) {
	rows, err := r.tx.Query(`SELECT bom.raw_material_id, rm.name, bom.consumption_per_unit, rm.current_stock
		FROM bom JOIN raw_materials rm ON bom.raw_material_id = rm.id
		WHERE bom.product_id = ?
		ORDER BY bom.raw_material_id`, productID)
	if err != nil {
		return nil, fmt.Errorf("load bom: %w", err)
	}
	defer rows.Close()

	var lines []bomLine
	for rows.Next() {
		var l bomLine
		if err := rows.Scan(&l.MaterialID, &l.MaterialName, &l.PerUnit, &l.Stock); err != nil {
			return nil, fmt.Errorf("scan bom line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *txRepo) productExists(id int) (bool, error) {
	var n int
	err := r.tx.QueryRow("SELECT COUNT(*) FROM products WHERE id = ?", id).Scan(&n)
	return n > 0, err
}

func (r *txRepo) customerExists(id int) (bool, error) {
	var n int
	err := r.tx.QueryRow("SELECT COUNT(*) FROM customers WHERE id = ?", id).Scan(&n)
	return n > 0, err
}

func (r *txRepo) supplierExists(id int) (bool, error) {
	var n int
	err := r.tx.QueryRow("SELECT COUNT(*) FROM suppliers WHERE id = ?", id).Scan(&n)
	return n > 0, err
}

func (r *txRepo) materialName(id int) (string, error) {
	var name string
	err := r.tx.QueryRow("SELECT name FROM raw_materials WHERE id = ?", id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: raw material %d", ErrNotFound, id)
	}
	return name, err
}

// getProductStock reads the finished-goods counter. A missing row reads as
// zero with ok=false.
func (r *txRepo) getProductStock(productID int) (qty int, ok bool, err error) {
	err = r.tx.QueryRow("SELECT current_stock FROM product_stock WHERE product_id = ?", productID).Scan(&qty)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read product stock: %w", err)
	}
	return qty, true, nil
}

// addProductStock applies a positive delta, creating the row lazily on the
// first production run for the product.
func (r *txRepo) addProductStock(productID, qty int) error {
	res, err := r.tx.Exec(`UPDATE product_stock
		SET current_stock = current_stock + ?, updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ?`, qty, productID)
	if err != nil {
		return fmt.Errorf("increment product stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.tx.Exec("INSERT INTO product_stock (product_id, current_stock) VALUES (?, ?)",
			productID, qty); err != nil {
			return fmt.Errorf("insert product stock: %w", err)
		}
	}
	return nil
}

// deductProductStock applies a guarded decrement. The WHERE guard re-validates
// the balance at write time so a concurrent sale committed between our read
// and this write cannot overdraw the row.
func (r *txRepo) deductProductStock(productID, qty int) (applied bool, err error) {
	res, err := r.tx.Exec(`UPDATE product_stock
		SET current_stock = current_stock - ?, updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND current_stock >= ?`, qty, productID, qty)
	if err != nil {
		return false, fmt.Errorf("decrement product stock: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *txRepo) addMaterialStock(materialID int, qty float64) error {
	res, err := r.tx.Exec("UPDATE raw_materials SET current_stock = current_stock + ? WHERE id = ?",
		qty, materialID)
	if err != nil {
		return fmt.Errorf("increment material stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: raw material %d", ErrNotFound, materialID)
	}
	return nil
}

// deductMaterialStock applies a guarded decrement, same contract as
// deductProductStock.
func (r *txRepo) deductMaterialStock(materialID int, qty float64) (applied bool, err error) {
	res, err := r.tx.Exec(`UPDATE raw_materials
		SET current_stock = current_stock - ?
		WHERE id = ? AND current_stock >= ?`, qty, materialID, qty)
	if err != nil {
		return false, fmt.Errorf("decrement material stock: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *txRepo) insertProduction(req ProductionRequest) (int64, error) {
	res, err := r.tx.Exec(`INSERT INTO production (date, product_id, quantity_produced, rejects, remarks)
		VALUES (?, ?, ?, ?, ?)`,
		req.Date, req.ProductID, req.Quantity, req.Rejects, req.Remarks)
	if err != nil {
		return 0, fmt.Errorf("insert production record: %w", err)
	}
	return res.LastInsertId()
}

func (r *txRepo) insertPurchase(req PurchaseRequest) (int64, error) {
	res, err := r.tx.Exec(`INSERT INTO purchase (date, supplier_id, raw_material_id, quantity, rate, bill_number, remarks)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.Date, req.SupplierID, req.RawMaterialID, req.Quantity, req.Rate, req.BillNumber, req.Remarks)
	if err != nil {
		return 0, fmt.Errorf("insert purchase record: %w", err)
	}
	return res.LastInsertId()
}

func (r *txRepo) insertSale(req SaleRequest) (int64, error) {
	res, err := r.tx.Exec(`INSERT INTO sales (date, customer_id, product_id, quantity, dispatch_type, vehicle_number, remarks)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.Date, req.CustomerID, req.ProductID, req.Quantity, req.DispatchType, req.VehicleNumber, req.Remarks)
	if err != nil {
		return 0, fmt.Errorf("insert sales record: %w", err)
	}
	return res.LastInsertId()
}
