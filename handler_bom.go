package main

import (
	"net/http"
	"strconv"

	"packinv/internal/audit"
	"packinv/internal/validation"
)

// handleGetBOM returns a product's recipe with material names joined in.
func handleGetBOM(w http.ResponseWriter, r *http.Request, idStr string) {
	productID, ok := pathID(idStr)
	if !ok {
		jsonErr(w, "Invalid product id", 400)
		return
	}

	var exists int
	db.QueryRow("SELECT COUNT(*) FROM products WHERE id = ?", productID).Scan(&exists)
	if exists == 0 {
		jsonErr(w, "Product not found", 404)
		return
	}

	rows, err := db.Query(`SELECT bom.id, bom.product_id, bom.raw_material_id, bom.consumption_per_unit,
			p.name, rm.name, rm.unit
		FROM bom
		JOIN products p ON bom.product_id = p.id
		JOIN raw_materials rm ON bom.raw_material_id = rm.id
		WHERE bom.product_id = ?
		ORDER BY bom.raw_material_id`, productID)
	if err != nil {
		jsonErr(w, "Failed to load recipe", 500)
		return
	}
	defer rows.Close()

	entries := []BOMEntry{}
	for rows.Next() {
		var e BOMEntry
		if err := rows.Scan(&e.ID, &e.ProductID, &e.RawMaterialID, &e.ConsumptionPerUnit,
			&e.ProductName, &e.MaterialName, &e.Unit); err != nil {
			jsonErr(w, "Failed to scan recipe entry", 500)
			return
		}
		entries = append(entries, e)
	}
	jsonResp(w, entries)
}

type bomEntryRequest struct {
	RawMaterialID      int     `json:"raw_material_id"`
	ConsumptionPerUnit float64 `json:"consumption_per_unit"`
}

// handleSetBOMEntry adds or updates one recipe line for a product.
func handleSetBOMEntry(w http.ResponseWriter, r *http.Request, idStr string) {
	productID, ok := pathID(idStr)
	if !ok {
		jsonErr(w, "Invalid product id", 400)
		return
	}

	var req bomEntryRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "Invalid request body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.ValidatePositiveInt(ve, "raw_material_id", req.RawMaterialID)
	validation.ValidatePositiveFloat(ve, "consumption_per_unit", req.ConsumptionPerUnit)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	var exists int
	db.QueryRow("SELECT COUNT(*) FROM products WHERE id = ?", productID).Scan(&exists)
	if exists == 0 {
		jsonErr(w, "Product not found", 404)
		return
	}
	db.QueryRow("SELECT COUNT(*) FROM raw_materials WHERE id = ?", req.RawMaterialID).Scan(&exists)
	if exists == 0 {
		jsonErr(w, "Material not found", 404)
		return
	}

	res, err := db.Exec(`INSERT INTO bom (product_id, raw_material_id, consumption_per_unit)
		VALUES (?, ?, ?)
		ON CONFLICT(product_id, raw_material_id)
		DO UPDATE SET consumption_per_unit = excluded.consumption_per_unit`,
		productID, req.RawMaterialID, req.ConsumptionPerUnit)
	if err != nil {
		jsonErr(w, "Failed to save recipe entry", 500)
		return
	}
	id, _ := res.LastInsertId()

	logAudit(r, audit.ActionUpdate, "bom", idStr,
		"Set recipe entry material "+strconv.Itoa(req.RawMaterialID))
	hub.BroadcastChange("bom", "update", productID)
	jsonResp(w, map[string]interface{}{"id": id, "product_id": productID, "raw_material_id": req.RawMaterialID})
}

// handleDeleteBOMEntry removes one recipe line.
func handleDeleteBOMEntry(w http.ResponseWriter, r *http.Request, idStr, materialStr string) {
	productID, ok := pathID(idStr)
	if !ok {
		jsonErr(w, "Invalid product id", 400)
		return
	}
	materialID, ok := pathID(materialStr)
	if !ok {
		jsonErr(w, "Invalid material id", 400)
		return
	}

	res, err := db.Exec("DELETE FROM bom WHERE product_id = ? AND raw_material_id = ?", productID, materialID)
	if err != nil {
		jsonErr(w, "Failed to delete recipe entry", 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "Recipe entry not found", 404)
		return
	}

	logAudit(r, audit.ActionDelete, "bom", idStr, "Deleted recipe entry material "+materialStr)
	hub.BroadcastChange("bom", "update", productID)
	jsonResp(w, map[string]string{"status": "ok"})
}
