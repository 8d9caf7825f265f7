package models

import "time"

// Role is a named bundle of permission codes assignable to users. A role named
// "admin" satisfies every permission check. Disabled roles contribute nothing.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey" json:"id"`
	// Name is the unique name of the role (e.g., "admin", "operator").
	Name string `gorm:"unique;size:100;not null" json:"name"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255" json:"description"`
	// Enabled toggles whether the role grants its permissions.
	Enabled bool `gorm:"not null" json:"enabled"`
	// IsSystem indicates if this is a system role that cannot be deleted or renamed.
	IsSystem bool `gorm:"default:false" json:"isSystem"`
	// Permissions assigned to the role.
	Permissions []Permission `gorm:"many2many:role_permissions;constraint:OnDelete:CASCADE" json:"permissions,omitempty"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}

// PermissionCodes returns the codes of the loaded permissions.
func (r *Role) PermissionCodes() []string {
	out := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		out = append(out, p.Code)
	}

	return out
}
