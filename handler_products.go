package main

import (
	"net/http"
	"strconv"
	"strings"

	"packinv/internal/audit"
	"packinv/internal/validation"
)

func handleListProducts(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	page, limit, offset := parsePagination(r)

	where := "1=1"
	var args []interface{}
	if search != "" {
		where += " AND name LIKE ?"
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM products WHERE "+where, args...).Scan(&total); err != nil {
		jsonErr(w, "Failed to count products", 500)
		return
	}

	rows, err := db.Query(`SELECT id, name, volume, preform_weight, cap_type, created_at
		FROM products WHERE `+where+` ORDER BY name LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		jsonErr(w, "Failed to list products", 500)
		return
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Volume, &p.PreformWeight, &p.CapType, &p.CreatedAt); err != nil {
			jsonErr(w, "Failed to scan product", 500)
			return
		}
		products = append(products, p)
	}
	jsonMeta(w, products, total, page, limit)
}

func handleGetProduct(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := pathID(idStr)
	if !ok {
		jsonErr(w, "Invalid product id", 400)
		return
	}
	var p Product
	err := db.QueryRow(`SELECT id, name, volume, preform_weight, cap_type, created_at
		FROM products WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Volume, &p.PreformWeight, &p.CapType, &p.CreatedAt)
	if err != nil {
		jsonErr(w, "Product not found", 404)
		return
	}
	jsonResp(w, p)
}

type productRequest struct {
	Name          string  `json:"name"`
	Volume        string  `json:"volume"`
	PreformWeight float64 `json:"preform_weight"`
	CapType       string  `json:"cap_type"`
}

func handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
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

	res, err := db.Exec("INSERT INTO products (name, volume, preform_weight, cap_type) VALUES (?, ?, ?, ?)",
		strings.TrimSpace(req.Name), req.Volume, req.PreformWeight, req.CapType)
	if err != nil {
		jsonErr(w, "Product name already exists", 409)
		return
	}
	id, _ := res.LastInsertId()

	logAudit(r, audit.ActionCreate, "products", strconv.FormatInt(id, 10), "Created product "+req.Name)
	hub.BroadcastChange("product", "create", id)
	jsonResp(w, map[string]interface{}{"id": id, "name": req.Name})
}

func handleUpdateProduct(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := pathID(idStr)
	if !ok {
		jsonErr(w, "Invalid product id", 400)
		return
	}

	var req productRequest
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

	res, err := db.Exec("UPDATE products SET name = ?, volume = ?, preform_weight = ?, cap_type = ? WHERE id = ?",
		strings.TrimSpace(req.Name), req.Volume, req.PreformWeight, req.CapType, id)
	if err != nil {
		jsonErr(w, "Product name already exists", 409)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "Product not found", 404)
		return
	}

	logAudit(r, audit.ActionUpdate, "products", idStr, "Updated product "+req.Name)
	hub.BroadcastChange("product", "update", id)
	jsonResp(w, map[string]string{"status": "ok"})
}

// handleDeleteProduct refuses deletion once transactions reference the
// product, so historical records stay consistent.
func handleDeleteProduct(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := pathID(idStr)
	if !ok {
		jsonErr(w, "Invalid product id", 400)
		return
	}

	var refs int
	db.QueryRow(`SELECT (SELECT COUNT(*) FROM production WHERE product_id = ?) +
		(SELECT COUNT(*) FROM sales WHERE product_id = ?)`, id, id).Scan(&refs)
	if refs > 0 {
		jsonErr(w, "Product has transaction history and cannot be deleted", 409)
		return
	}

	res, err := db.Exec("DELETE FROM products WHERE id = ?", id)
	if err != nil {
		jsonErr(w, "Failed to delete product", 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "Product not found", 404)
		return
	}

	logAudit(r, audit.ActionDelete, "products", idStr, "Deleted product")
	hub.BroadcastChange("product", "delete", id)
	jsonResp(w, map[string]string{"status": "ok"})
}
