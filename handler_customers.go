package main

import (
	"net/http"
	"strconv"
	"strings"

	"packinv/internal/audit"
	"packinv/internal/validation"
)

func handleListCustomers(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	page, limit, offset := parsePagination(r)

	where := "1=1"
	var args []interface{}
	if search != "" {
		where += " AND (name LIKE ? OR phone LIKE ?)"
		args = append(args, "%"+search+"%", "%"+search+"%")
	}

	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM customers WHERE "+where, args...).Scan(&total); err != nil {
		jsonErr(w, "Failed to count customers", 500)
		return
	}

	rows, err := db.Query(`SELECT id, name, phone, address, created_at
		FROM customers WHERE `+where+` ORDER BY name LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		jsonErr(w, "Failed to list customers", 500)
		return
	}
	defer rows.Close()

	customers := []Customer{}
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt); err != nil {
			jsonErr(w, "Failed to scan customer", 500)
			return
		}
		customers = append(customers, c)
	}
	jsonMeta(w, customers, total, page, limit)
}

type partnerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
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

	res, err := db.Exec("INSERT INTO customers (name, phone, address) VALUES (?, ?, ?)",
		strings.TrimSpace(req.Name), req.Phone, req.Address)
	if err != nil {
		jsonErr(w, "Failed to create customer", 500)
		return
	}
	id, _ := res.LastInsertId()

	logAudit(r, audit.ActionCreate, "customers", strconv.FormatInt(id, 10), "Created customer "+req.Name)
	jsonResp(w, map[string]interface{}{"id": id, "name": req.Name})
}

func handleUpdateCustomer(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := pathID(idStr)
	if !ok {
		jsonErr(w, "Invalid customer id", 400)
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

	res, err := db.Exec("UPDATE customers SET name = ?, phone = ?, address = ? WHERE id = ?",
		strings.TrimSpace(req.Name), req.Phone, req.Address, id)
	if err != nil {
		jsonErr(w, "Failed to update customer", 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "Customer not found", 404)
		return
	}

	logAudit(r, audit.ActionUpdate, "customers", idStr, "Updated customer "+req.Name)
	jsonResp(w, map[string]string{"status": "ok"})
}

func handleDeleteCustomer(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := pathID(idStr)
	if !ok {
		jsonErr(w, "Invalid customer id", 400)
		return
	}

	var refs int
	db.QueryRow("SELECT COUNT(*) FROM sales WHERE customer_id = ?", id).Scan(&refs)
	if refs > 0 {
		jsonErr(w, "Customer has sales history and cannot be deleted", 409)
		return
	}

	res, err := db.Exec("DELETE FROM customers WHERE id = ?", id)
	if err != nil {
		jsonErr(w, "Failed to delete customer", 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "Customer not found", 404)
		return
	}

	logAudit(r, audit.ActionDelete, "customers", idStr, "Deleted customer")
	jsonResp(w, map[string]string{"status": "ok"})
}
