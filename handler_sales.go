package main

import (
	"net/http"
	"strconv"

	"packinv/internal/audit"
	"packinv/internal/stock"
	"packinv/internal/validation"
)

func handleListSales(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r)

	where := "1=1"
	var args []interface{}
	if v := r.URL.Query().Get("customer_id"); v != "" {
		where += " AND sa.customer_id = ?"
		args = append(args, v)
	}
	if v := r.URL.Query().Get("product_id"); v != "" {
		where += " AND sa.product_id = ?"
		args = append(args, v)
	}
	if v := r.URL.Query().Get("from"); v != "" {
		where += " AND sa.date >= ?"
		args = append(args, v)
	}
	if v := r.URL.Query().Get("to"); v != "" {
		where += " AND sa.date <= ?"
		args = append(args, v)
	}

	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM sales sa WHERE "+where, args...).Scan(&total); err != nil {
		jsonErr(w, "Failed to count sales", 500)
		return
	}

	rows, err := db.Query(`SELECT sa.id, sa.date, sa.customer_id, sa.product_id, sa.quantity,
			sa.dispatch_type, sa.vehicle_number, sa.remarks, c.name, p.name, p.volume, sa.created_at
		FROM sales sa
		JOIN customers c ON sa.customer_id = c.id
		JOIN products p ON sa.product_id = p.id
		WHERE `+where+` ORDER BY sa.date DESC, sa.id DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		jsonErr(w, "Failed to list sales", 500)
		return
	}
	defer rows.Close()

	records := []SalesRecord{}
	for rows.Next() {
		var rec SalesRecord
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.CustomerID, &rec.ProductID, &rec.Quantity,
			&rec.DispatchType, &rec.VehicleNumber, &rec.Remarks, &rec.CustomerName,
			&rec.ProductName, &rec.Volume, &rec.CreatedAt); err != nil {
			jsonErr(w, "Failed to scan sale", 500)
			return
		}
		records = append(records, rec)
	}
	jsonMeta(w, records, total, page, limit)
}

func handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var req stock.SaleRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "Invalid request body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "date", req.Date)
	validation.ValidateDate(ve, "date", req.Date)
	validation.ValidatePositiveInt(ve, "customer_id", req.CustomerID)
	validation.ValidatePositiveInt(ve, "product_id", req.ProductID)
	validation.ValidatePositiveInt(ve, "quantity", req.Quantity)
	validation.ValidateEnum(ve, "dispatch_type", req.DispatchType, validation.ValidDispatchTypes)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	result, err := engine.RecordSale(req)
	if err != nil {
		writeStockError(w, err)
		return
	}

	logAudit(r, audit.ActionCreate, "sales", strconv.FormatInt(result.SaleID, 10),
		"Recorded sale of "+strconv.Itoa(req.Quantity))
	hub.BroadcastChange("sale", "create", result.SaleID)
	jsonResp(w, result)
}
