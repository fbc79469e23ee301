package main

import (
	"net/http"
	"strconv"
	"strings"

	"packinv/internal/audit"
	"packinv/internal/validation"
)

func handleListMaterials(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	page, limit, offset := parsePagination(r)

	where := "1=1"
	var args []interface{}
	if search != "" {
		where += " AND name LIKE ?"
		args = append(args, "%"+search+"%")
	}
	if mt := r.URL.Query().Get("material_type"); mt != "" {
		where += " AND material_type = ?"
		args = append(args, mt)
	}

	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM raw_materials WHERE "+where, args...).Scan(&total); err != nil {
		jsonErr(w, "Failed to count materials", 500)
		return
	}

	rows, err := db.Query(`SELECT id, name, material_type, unit, current_stock, created_at
		FROM raw_materials WHERE `+where+` ORDER BY name LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		jsonErr(w, "Failed to list materials", 500)
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
	jsonMeta(w, materials, total, page, limit)
}

func handleGetMaterial(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := pathID(idStr)
	if !ok {
		jsonErr(w, "Invalid material id", 400)
		return
	}
	var m RawMaterial
	err := db.QueryRow(`SELECT id, name, material_type, unit, current_stock, created_at
		FROM raw_materials WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.MaterialType, &m.Unit, &m.CurrentStock, &m.CreatedAt)
	if err != nil {
		jsonErr(w, "Material not found", 404)
		return
	}
	jsonResp(w, m)
}

type materialRequest struct {
	Name         string  `json:"name"`
	MaterialType string  `json:"material_type"`
	Unit         string  `json:"unit"`
	OpeningStock float64 `json:"opening_stock"`
}

func handleCreateMaterial(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "Invalid request body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "name", req.Name)
	if req.OpeningStock < 0 {
		ve.Add("opening_stock", "must not be negative")
	}
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	res, err := db.Exec("INSERT INTO raw_materials (name, material_type, unit, current_stock) VALUES (?, ?, ?, ?)",
		strings.TrimSpace(req.Name), req.MaterialType, req.Unit, req.OpeningStock)
	if err != nil {
		jsonErr(w, "Material name already exists", 409)
		return
	}
	id, _ := res.LastInsertId()

	logAudit(r, audit.ActionCreate, "raw_materials", strconv.FormatInt(id, 10), "Created material "+req.Name)
	hub.BroadcastChange("material", "create", id)
	jsonResp(w, map[string]interface{}{"id": id, "name": req.Name})
}

// handleUpdateMaterial edits descriptive fields only. Stock levels move
// exclusively through purchases and production runs.
func handleUpdateMaterial(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := pathID(idStr)
	if !ok {
		jsonErr(w, "Invalid material id", 400)
		return
	}

	var req materialRequest
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

	res, err := db.Exec("UPDATE raw_materials SET name = ?, material_type = ?, unit = ? WHERE id = ?",
		strings.TrimSpace(req.Name), req.MaterialType, req.Unit, id)
	if err != nil {
		jsonErr(w, "Material name already exists", 409)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "Material not found", 404)
		return
	}

	logAudit(r, audit.ActionUpdate, "raw_materials", idStr, "Updated material "+req.Name)
	hub.BroadcastChange("material", "update", id)
	jsonResp(w, map[string]string{"status": "ok"})
}

func handleDeleteMaterial(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := pathID(idStr)
	if !ok {
		jsonErr(w, "Invalid material id", 400)
		return
	}

	var refs int
	db.QueryRow(`SELECT (SELECT COUNT(*) FROM purchase WHERE raw_material_id = ?) +
		(SELECT COUNT(*) FROM bom WHERE raw_material_id = ?)`, id, id).Scan(&refs)
	if refs > 0 {
		jsonErr(w, "Material is referenced by purchases or recipes and cannot be deleted", 409)
		return
	}

	res, err := db.Exec("DELETE FROM raw_materials WHERE id = ?", id)
	if err != nil {
		jsonErr(w, "Failed to delete material", 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "Material not found", 404)
		return
	}

	logAudit(r, audit.ActionDelete, "raw_materials", idStr, "Deleted material")
	hub.BroadcastChange("material", "delete", id)
	jsonResp(w, map[string]string{"status": "ok"})
}
