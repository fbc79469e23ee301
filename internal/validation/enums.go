package validation

// Common enum values - these MUST match what handlers accept.
var (
	ValidDispatchTypes = []string{"direct", "transport", "courier", "pickup"}
	ValidUserRoles     = []string{"admin", "data_entry", "viewer"}
)
