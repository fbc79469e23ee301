package main

import (
	"net/http"
	"strconv"

	"packinv/internal/audit"
	"packinv/internal/stock"
	"packinv/internal/validation"
)

func handleListProduction(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r)

	where := "1=1"
	var args []interface{}
	if v := r.URL.Query().Get("product_id"); v != "" {
		where += " AND pr.product_id = ?"
		args = append(args, v)
	}
	if v := r.URL.Query().Get("from"); v != "" {
		where += " AND pr.date >= ?"
		args = append(args, v)
	}
	if v := r.URL.Query().Get("to"); v != "" {
		where += " AND pr.date <= ?"
		args = append(args, v)
	}

	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM production pr WHERE "+where, args...).Scan(&total); err != nil {
		jsonErr(w, "Failed to count production records", 500)
		return
	}

	rows, err := db.Query(`SELECT pr.id, pr.date, pr.product_id, pr.quantity_produced, pr.rejects,
			pr.remarks, p.name, p.volume, pr.created_at
		FROM production pr JOIN products p ON pr.product_id = p.id
		WHERE `+where+` ORDER BY pr.date DESC, pr.id DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		jsonErr(w, "Failed to list production records", 500)
		return
	}
	defer rows.Close()

	records := []ProductionRecord{}
	for rows.Next() {
		var rec ProductionRecord
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.ProductID, &rec.Quantity, &rec.Rejects,
			&rec.Remarks, &rec.ProductName, &rec.Volume, &rec.CreatedAt); err != nil {
			jsonErr(w, "Failed to scan production record", 500)
			return
		}
		records = append(records, rec)
	}
	jsonMeta(w, records, total, page, limit)
}

func handleCreateProduction(w http.ResponseWriter, r *http.Request) {
	var req stock.ProductionRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "Invalid request body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "date", req.Date)
	validation.ValidateDate(ve, "date", req.Date)
	validation.ValidatePositiveInt(ve, "product_id", req.ProductID)
	validation.ValidatePositiveInt(ve, "quantity_produced", req.Quantity)
	validation.ValidateNonNegativeInt(ve, "rejects", req.Rejects)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	result, err := engine.RecordProduction(req)
	if err != nil {
		writeStockError(w, err)
		return
	}

	logAudit(r, audit.ActionCreate, "production", strconv.FormatInt(result.ProductionID, 10),
		"Recorded production run of "+strconv.Itoa(req.Quantity))
	hub.BroadcastChange("production", "create", result.ProductionID)
	jsonResp(w, result)
}
