package main

import (
	"net/http"
	"strconv"

	"packinv/internal/audit"
	"packinv/internal/stock"
	"packinv/internal/validation"
)

func handleListPurchases(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r)

	where := "1=1"
	var args []interface{}
	if v := r.URL.Query().Get("supplier_id"); v != "" {
		where += " AND pu.supplier_id = ?"
		args = append(args, v)
	}
	if v := r.URL.Query().Get("raw_material_id"); v != "" {
		where += " AND pu.raw_material_id = ?"
		args = append(args, v)
	}
	if v := r.URL.Query().Get("from"); v != "" {
		where += " AND pu.date >= ?"
		args = append(args, v)
	}
	if v := r.URL.Query().Get("to"); v != "" {
		where += " AND pu.date <= ?"
		args = append(args, v)
	}

	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM purchase pu WHERE "+where, args...).Scan(&total); err != nil {
		jsonErr(w, "Failed to count purchases", 500)
		return
	}

	rows, err := db.Query(`SELECT pu.id, pu.date, pu.supplier_id, pu.raw_material_id, pu.quantity,
			pu.rate, pu.bill_number, pu.remarks, s.name, rm.name, rm.unit, pu.created_at
		FROM purchase pu
		JOIN suppliers s ON pu.supplier_id = s.id
		JOIN raw_materials rm ON pu.raw_material_id = rm.id
		WHERE `+where+` ORDER BY pu.date DESC, pu.id DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		jsonErr(w, "Failed to list purchases", 500)
		return
	}
	defer rows.Close()

	records := []PurchaseRecord{}
	for rows.Next() {
		var rec PurchaseRecord
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.SupplierID, &rec.RawMaterialID, &rec.Quantity,
			&rec.Rate, &rec.BillNumber, &rec.Remarks, &rec.SupplierName, &rec.MaterialName,
			&rec.Unit, &rec.CreatedAt); err != nil {
			jsonErr(w, "Failed to scan purchase", 500)
			return
		}
		records = append(records, rec)
	}
	jsonMeta(w, records, total, page, limit)
}

func handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req stock.PurchaseRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "Invalid request body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "date", req.Date)
	validation.ValidateDate(ve, "date", req.Date)
	validation.ValidatePositiveInt(ve, "supplier_id", req.SupplierID)
	validation.ValidatePositiveInt(ve, "raw_material_id", req.RawMaterialID)
	validation.ValidateNonNegativeFloat(ve, "quantity", req.Quantity)
	if req.Rate < 0 {
		ve.Add("rate", "must not be negative")
	}
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	result, err := engine.RecordPurchase(req)
	if err != nil {
		writeStockError(w, err)
		return
	}

	logAudit(r, audit.ActionCreate, "purchases", strconv.FormatInt(result.PurchaseID, 10),
		"Recorded purchase, bill "+req.BillNumber)
	hub.BroadcastChange("purchase", "create", result.PurchaseID)
	jsonResp(w, result)
}
