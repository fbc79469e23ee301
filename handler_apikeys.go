package main

import (
	"net/http"
	"strconv"

	"packinv/internal/audit"
)

type apiKey struct {
	ID        int    `json:"id"`
	Token     string `json:"token,omitempty"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	Revoked   int    `json:"revoked"`
}

func handleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query("SELECT id, name, created_at, revoked FROM api_keys ORDER BY id")
	if err != nil {
		jsonErr(w, "Failed to list API keys", 500)
		return
	}
	defer rows.Close()

	keys := []apiKey{}
	for rows.Next() {
		var k apiKey
		if err := rows.Scan(&k.ID, &k.Name, &k.CreatedAt, &k.Revoked); err != nil {
			jsonErr(w, "Failed to scan API key", 500)
			return
		}
		keys = append(keys, k)
	}
	jsonResp(w, keys)
}

// handleCreateAPIKey generates a new key. The token is only returned once.
func handleCreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "Invalid request body", 400)
		return
	}

	token := generateToken()
	res, err := db.Exec("INSERT INTO api_keys (token, name) VALUES (?, ?)", token, req.Name)
	if err != nil {
		jsonErr(w, "Failed to create API key", 500)
		return
	}
	id, _ := res.LastInsertId()

	logAudit(r, audit.ActionCreate, "apikeys", strconv.FormatInt(id, 10), "Created API key "+req.Name)
	jsonResp(w, apiKey{ID: int(id), Token: token, Name: req.Name})
}

func handleRevokeAPIKey(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := pathID(idStr)
	if !ok {
		jsonErr(w, "Invalid API key id", 400)
		return
	}

	res, err := db.Exec("UPDATE api_keys SET revoked = 1 WHERE id = ?", id)
	if err != nil {
		jsonErr(w, "Failed to revoke API key", 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "API key not found", 404)
		return
	}

	logAudit(r, audit.ActionDelete, "apikeys", idStr, "Revoked API key")
	jsonResp(w, map[string]string{"status": "ok"})
}
