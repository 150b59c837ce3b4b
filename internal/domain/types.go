package domain

// Roles carried in access tokens.
const (
	RoleCustomer = "customer"
	RoleOwner    = "owner"
	RoleAdmin    = "admin"
)

// RequestContext carries authenticated user info when available.
type RequestContext struct {
	UserID    string `json:"userId"`
	Role      string `json:"role"`
	RequestID string `json:"requestId,omitempty"`
}
