package main

import (
	"net/http"

	"packinv/internal/audit"
	"packinv/internal/auth"
)

// handleGetPermissions returns the permission matrix for one role, or the
// module/action vocabulary when no role is given.
func handleGetPermissions(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	if role == "" {
		jsonResp(w, map[string]interface{}{
			"modules": auth.AllModules,
			"actions": auth.AllActions,
			"roles":   []string{"admin", "data_entry", "viewer"},
		})
		return
	}
	jsonResp(w, permCache.GetRolePermissions(role))
}

type setPermissionsRequest struct {
	Role        string                 `json:"role"`
	Permissions []auth.PermissionEntry `json:"permissions"`
}

// handleSetPermissions replaces a role's permission set. The admin role is
// immutable so an admin can never lock themselves out.
func handleSetPermissions(w http.ResponseWriter, r *http.Request) {
	var req setPermissionsRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "Invalid request body", 400)
		return
	}
	if req.Role == "" {
		jsonErr(w, "Role is required", 400)
		return
	}
	if req.Role == "admin" {
		jsonErr(w, "Admin permissions cannot be modified", 400)
		return
	}

	if err := auth.SetRolePermissions(db, permCache, req.Role, req.Permissions); err != nil {
		jsonErr(w, "Failed to update permissions", 500)
		return
	}

	logAudit(r, audit.ActionUpdate, "permissions", req.Role, "Updated role permissions")
	jsonResp(w, map[string]string{"status": "ok"})
}

// handleAuditLog lists audit entries with optional filters.
func handleAuditLog(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r)
	q := r.URL.Query()

	entries, total, err := audit.Query(db, q.Get("username"), q.Get("module"), q.Get("action"), limit, offset)
	if err != nil {
		jsonErr(w, "Failed to load audit log", 500)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	jsonMeta(w, entries, total, page, limit)
}
