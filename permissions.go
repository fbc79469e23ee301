package main

import "packinv/internal/auth"

// permCache is the process-wide permission cache, refreshed whenever an admin
// edits role permissions.
var permCache = auth.NewPermCache()

func hasPermission(role, module, action string) bool {
	return permCache.HasPermission(role, module, action)
}
