package main

import (
	"net/http"

	"packinv/internal/audit"
)

// logAudit records an audit entry attributed to the requesting user.
func logAudit(r *http.Request, action, module, recordID, summary string) {
	username := audit.GetUsername(db, r, sessionCookie)
	audit.LogAudit(db, hub, username, action, module, recordID, summary, audit.GetClientIP(r))
}
