// Package audit records who did what across the application.
package audit

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"packinv/internal/websocket"
)

// Action constants.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
	ActionExport = "EXPORT"
	ActionLogin  = "LOGIN"
	ActionLogout = "LOGOUT"
)

// Entry is one audit log row.
type Entry struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Module    string `json:"module"`
	RecordID  string `json:"record_id"`
	Summary   string `json:"summary"`
	IPAddress string `json:"ip_address,omitempty"`
	CreatedAt string `json:"created_at"`
}

// LogAudit writes an audit entry and pushes a change notification to
// connected clients. Audit failures are logged, never propagated.
func LogAudit(db *sql.DB, hub *websocket.Hub, username, action, module, recordID, summary, ip string) {
	_, err := db.Exec(`INSERT INTO audit_log (username, action, module, record_id, summary, ip_address)
		VALUES (?, ?, ?, ?, ?, ?)`,
		username, action, module, recordID, summary, ip)
	if err != nil {
		fmt.Printf("audit log error: %v\n", err)
	}
	if hub != nil {
		hub.Broadcast(websocket.Event{
			Type:   module + "_" + strings.ToLower(action),
			ID:     recordID,
			Action: action,
		})
	}
}

// GetUsername extracts the username from the named session cookie.
func GetUsername(db *sql.DB, r *http.Request, cookieName string) string {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return "system"
	}
	var username string
	err = db.QueryRow("SELECT u.username FROM users u JOIN sessions s ON u.id = s.user_id WHERE s.token = ?",
		cookie.Value).Scan(&username)
	if err != nil {
		return "system"
	}
	return username
}

// GetClientIP extracts the real client IP from the request (handles proxies).
func GetClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// Query returns audit entries matching the optional filters, newest first.
func Query(db *sql.DB, username, module, action string, limit, offset int) ([]Entry, int, error) {
	where := []string{"1=1"}
	var args []interface{}
	if username != "" {
		where = append(where, "username = ?")
		args = append(args, username)
	}
	if module != "" {
		where = append(where, "module = ?")
		args = append(args, module)
	}
	if action != "" {
		where = append(where, "action = ?")
		args = append(args, action)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM audit_log WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, username, action, module, record_id, summary, COALESCE(ip_address, ''), created_at
		FROM audit_log WHERE ` + cond + ` ORDER BY id DESC LIMIT ? OFFSET ?`
	rows, err := db.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Username, &e.Action, &e.Module, &e.RecordID,
			&e.Summary, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
