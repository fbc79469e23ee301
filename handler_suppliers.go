package main

import (
	"net/http"
	"strconv"
	"strings"

	"packinv/internal/audit"
	"packinv/internal/validation"
)

func handleListSuppliers(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	page, limit, offset := parsePagination(r)

	where := "1=1"
	var args []interface{}
	if search != "" {
		where += " AND (name LIKE ? OR phone LIKE ?)"
		args = append(args, "%"+search+"%", "%"+search+"%")
	}

	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM suppliers WHERE "+where, args...).Scan(&total); err != nil {
		jsonErr(w, "Failed to count suppliers", 500)
		return
	}

	rows, err := db.Query(`SELECT id, name, phone, address, created_at
		FROM suppliers WHERE `+where+` ORDER BY name LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		jsonErr(w, "Failed to list suppliers", 500)
		return
	}
	defer rows.Close()

	suppliers := []Supplier{}
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Phone, &s.Address, &s.CreatedAt); err != nil {
			jsonErr(w, "Failed to scan supplier", 500)
			return
		}
		suppliers = append(suppliers, s)
	}
	jsonMeta(w, suppliers, total, page, limit)
}

func handleCreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req partnerRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "Invalid request body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "name", req.Name)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	res, err := db.Exec("INSERT INTO suppliers (name, phone, address) VALUES (?, ?, ?)",
		strings.TrimSpace(req.Name), req.Phone, req.Address)
	if err != nil {
		jsonErr(w, "Failed to create supplier", 500)
		return
	}
	id, _ := res.LastInsertId()

	logAudit(r, audit.ActionCreate, "suppliers", strconv.FormatInt(id, 10), "Created supplier "+req.Name)
	jsonResp(w, map[string]interface{}{"id": id, "name": req.Name})
}

func handleUpdateSupplier(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := pathID(idStr)
	if !ok {
		jsonErr(w, "Invalid supplier id", 400)
		return
	}

	var req partnerRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "Invalid request body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "name", req.Name)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	res, err := db.Exec("UPDATE suppliers SET name = ?, phone = ?, address = ? WHERE id = ?",
		strings.TrimSpace(req.Name), req.Phone, req.Address, id)
	if err != nil {
		jsonErr(w, "Failed to update supplier", 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "Supplier not found", 404)
		return
	}

	logAudit(r, audit.ActionUpdate, "suppliers", idStr, "Updated supplier "+req.Name)
	jsonResp(w, map[string]string{"status": "ok"})
}

func handleDeleteSupplier(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := pathID(idStr)
	if !ok {
		jsonErr(w, "Invalid supplier id", 400)
		return
	}

	var refs int
	db.QueryRow("SELECT COUNT(*) FROM purchase WHERE supplier_id = ?", id).Scan(&refs)
	if refs > 0 {
		jsonErr(w, "Supplier has purchase history and cannot be deleted", 409)
		return
	}

	res, err := db.Exec("DELETE FROM suppliers WHERE id = ?", id)
	if err != nil {
		jsonErr(w, "Failed to delete supplier", 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "Supplier not found", 404)
		return
	}

	logAudit(r, audit.ActionDelete, "suppliers", idStr, "Deleted supplier")
	jsonResp(w, map[string]string{"status": "ok"})
}
