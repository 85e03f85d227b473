package models

import "time"

// Monitoring user roles. Authentication is delegated to the identity provider;
// we only persist the role used for admin authorization.
const (
	UserRoleAdmin  = "admin"
	UserRoleViewer = "viewer"
)

// MonitoringUser is an operator account of the dashboard itself.
type MonitoringUser struct {
	ID          string     `db:"id" json:"id"`
	Email       string     `db:"email" json:"email"`
	DisplayName string     `db:"display_name" json:"displayName"`
	Role        string     `db:"role" json:"role"`
	LastSeenAt  *time.Time `db:"last_seen_at" json:"lastSeenAt,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
}

// ValidUserRole reports whether role is a recognized monitoring role.
func ValidUserRole(role string) bool {
	return role == UserRoleAdmin || role == UserRoleViewer
}

// DashboardStats is the aggregate served by the dashboard stats endpoint.
type DashboardStats struct {
	TotalMEPs       int        `json:"totalMEPs"`
	TotalCommittees int        `json:"totalCommittees"`
	TotalCountries  int        `json:"totalCountries"`
	LastUpdate      *time.Time `json:"lastUpdate,omitempty"`
}
