package main

import (
	"net/http"
	"strconv"

	"packinv/internal/audit"
	"packinv/internal/auth"
	"packinv/internal/validation"
)

func handleListUsers(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query(`SELECT id, username, display_name, role, active, created_at, COALESCE(last_login, '')
		FROM users ORDER BY username`)
	if err != nil {
		jsonErr(w, "Failed to list users", 500)
		return
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Role, &u.Active, &u.CreatedAt, &u.LastLogin); err != nil {
			jsonErr(w, "Failed to scan user", 500)
			return
		}
		users = append(users, u)
	}
	jsonResp(w, users)
}

type createUserRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

func handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "Invalid request body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "username", req.Username)
	validation.ValidateEnum(ve, "role", req.Role, validation.ValidUserRoles)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}
	if req.Role == "" {
		req.Role = "viewer"
	}
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		jsonErr(w, err.Error(), 400)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		jsonErr(w, "Failed to hash password", 500)
		return
	}

	res, err := db.Exec("INSERT INTO users (username, password_hash, display_name, role) VALUES (?, ?, ?, ?)",
		req.Username, hash, req.DisplayName, req.Role)
	if err != nil {
		jsonErr(w, "Username already exists", 409)
		return
	}
	id, _ := res.LastInsertId()

	logAudit(r, audit.ActionCreate, "users", strconv.FormatInt(id, 10), "Created user "+req.Username)
	jsonResp(w, map[string]interface{}{"id": id, "username": req.Username, "role": req.Role})
}

type updateUserRequest struct {
	DisplayName *string `json:"display_name"`
	Role        *string `json:"role"`
}

func handleUpdateUser(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := pathID(idStr)
	if !ok {
		jsonErr(w, "Invalid user id", 400)
		return
	}

	var req updateUserRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "Invalid request body", 400)
		return
	}

	if req.Role != nil {
		ve := &validation.ValidationErrors{}
		validation.ValidateEnum(ve, "role", *req.Role, validation.ValidUserRoles)
		if ve.HasErrors() {
			jsonErr(w, ve.Error(), 400)
			return
		}
		if _, err := db.Exec("UPDATE users SET role = ? WHERE id = ?", *req.Role, id); err != nil {
			jsonErr(w, "Failed to update user", 500)
			return
		}
	}
	if req.DisplayName != nil {
		if _, err := db.Exec("UPDATE users SET display_name = ? WHERE id = ?", *req.DisplayName, id); err != nil {
			jsonErr(w, "Failed to update user", 500)
			return
		}
	}

	logAudit(r, audit.ActionUpdate, "users", idStr, "Updated user")
	jsonResp(w, map[string]string{"status": "ok"})
}

// handleToggleUser flips the active flag. A user can never deactivate their
// own account.
func handleToggleUser(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := pathID(idStr)
	if !ok {
		jsonErr(w, "Invalid user id", 400)
		return
	}

	if callerID, _ := r.Context().Value(ctxUserID).(int); callerID == id {
		jsonErr(w, "Cannot change active status of your own account", 400)
		return
	}

	res, err := db.Exec("UPDATE users SET active = 1 - active WHERE id = ?", id)
	if err != nil {
		jsonErr(w, "Failed to update user", 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "User not found", 404)
		return
	}

	// Active sessions of a deactivated user are revoked immediately
	var active int
	db.QueryRow("SELECT active FROM users WHERE id = ?", id).Scan(&active)
	if active == 0 {
		db.Exec("DELETE FROM sessions WHERE user_id = ?", id)
	}

	logAudit(r, audit.ActionUpdate, "users", idStr, "Toggled user active status")
	jsonResp(w, map[string]interface{}{"id": id, "active": active})
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func handleResetPassword(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := pathID(idStr)
	if !ok {
		jsonErr(w, "Invalid user id", 400)
		return
	}

	var req resetPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "Invalid request body", 400)
		return
	}
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		jsonErr(w, err.Error(), 400)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		jsonErr(w, "Failed to hash password", 500)
		return
	}

	res, err := db.Exec("UPDATE users SET password_hash = ? WHERE id = ?", hash, id)
	if err != nil {
		jsonErr(w, "Failed to reset password", 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "User not found", 404)
		return
	}

	// Force re-login with the new password
	db.Exec("DELETE FROM sessions WHERE user_id = ?", id)

	logAudit(r, audit.ActionUpdate, "users", idStr, "Reset password")
	jsonResp(w, map[string]string{"status": "ok"})
}
