package main

import (
	"fmt"
	"net/http"

	"packinv/internal/audit"
)

// handleFinishedStock lists finished-goods levels per product. Products with
// no production history show zero.
func handleFinishedStock(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query(`SELECT p.id, COALESCE(ps.current_stock, 0), p.name, p.volume,
			COALESCE(ps.updated_at, '')
		FROM products p LEFT JOIN product_stock ps ON p.id = ps.product_id
		ORDER BY p.name`)
	if err != nil {
		jsonErr(w, "Failed to load finished stock", 500)
		return
	}
	defer rows.Close()

	levels := []ProductStock{}
	for rows.Next() {
		var s ProductStock
		if err := rows.Scan(&s.ProductID, &s.CurrentStock, &s.ProductName, &s.Volume, &s.UpdatedAt); err != nil {
			jsonErr(w, "Failed to scan stock level", 500)
			return
		}
		levels = append(levels, s)
	}
	jsonResp(w, levels)
}

// handleMaterialStock lists raw material levels.
func handleMaterialStock(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query(`SELECT id, name, material_type, unit, current_stock, created_at
		FROM raw_materials ORDER BY name`)
	if err != nil {
		jsonErr(w, "Failed to load material stock", 500)
		return
	}
	defer rows.Close()

	materials := []RawMaterial{}
	for rows.Next() {
		var m RawMaterial
		if err := rows.Scan(&m.ID, &m.Name, &m.MaterialType, &m.Unit, &m.CurrentStock, &m.CreatedAt); err != nil {
			jsonErr(w, "Failed to scan material", 500)
			return
		}
		materials = append(materials, m)
	}
	jsonResp(w, materials)
}

// handleLowStock lists everything under the configured alert levels.
func handleLowStock(w http.ResponseWriter, r *http.Request) {
	low := map[string]interface{}{}

	materials := []LowStockMaterial{}
	rows, err := db.Query(`SELECT name, current_stock, unit FROM raw_materials
		WHERE current_stock < ? ORDER BY current_stock`, cfg.LowMaterialLevel)
	if err != nil {
		jsonErr(w, "Failed to load low stock", 500)
		return
	}
	for rows.Next() {
		var m LowStockMaterial
		if rows.Scan(&m.Name, &m.CurrentStock, &m.Unit) == nil {
			materials = append(materials, m)
		}
	}
	rows.Close()
	low["raw_materials"] = materials

	finished := []LowStockProduct{}
	rows, err = db.Query(`SELECT p.name, p.volume, COALESCE(ps.current_stock, 0)
		FROM products p LEFT JOIN product_stock ps ON p.id = ps.product_id
		WHERE COALESCE(ps.current_stock, 0) < ?
		ORDER BY COALESCE(ps.current_stock, 0)`, cfg.LowFinishedLevel)
	if err != nil {
		jsonErr(w, "Failed to load low stock", 500)
		return
	}
	for rows.Next() {
		var p LowStockProduct
		if rows.Scan(&p.Name, &p.Volume, &p.CurrentStock) == nil {
			finished = append(finished, p)
		}
	}
	rows.Close()
	low["finished_goods"] = finished

	jsonResp(w, low)
}

// handleExportStock exports a combined stock report, one section for finished
// goods and one for raw materials.
func handleExportStock(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}

	headers := []string{"Type", "Name", "Volume / Material Type", "Unit", "Current Stock"}
	var data [][]string

	finished, err := db.Query(`SELECT p.name, p.volume, COALESCE(ps.current_stock, 0)
		FROM products p LEFT JOIN product_stock ps ON p.id = ps.product_id
		ORDER BY p.name`)
	if err != nil {
		jsonErr(w, "Failed to load finished stock", 500)
		return
	}
	for finished.Next() {
		var name, volume string
		var qty int
		finished.Scan(&name, &volume, &qty)
		data = append(data, []string{"Finished Good", name, volume, "pcs", fmt.Sprintf("%d", qty)})
	}
	finished.Close()

	materials, err := db.Query(`SELECT name, material_type, unit, current_stock
		FROM raw_materials ORDER BY name`)
	if err != nil {
		jsonErr(w, "Failed to load material stock", 500)
		return
	}
	for materials.Next() {
		var name, mtype, unit string
		var qty float64
		materials.Scan(&name, &mtype, &unit, &qty)
		data = append(data, []string{"Raw Material", name, mtype, unit, fmt.Sprintf("%.2f", qty)})
	}
	materials.Close()

	logAudit(r, audit.ActionExport, "stock", "", fmt.Sprintf("Exported stock report (%d rows) as %s", len(data), format))

	if format == "csv" {
		exportCSV(w, "stock.csv", headers, data)
	} else {
		exportExcel(w, "Stock", headers, data)
	}
}
