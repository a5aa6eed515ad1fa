// Package identity holds the user model, the fixed built-in identity table,
// and the credential store with its redundant-key storage policy.
package identity

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Permissions is the capability-flag set carried on every identity.
type Permissions struct {
	CanViewWorks   bool `json:"canViewWorks"`
	CanCreateWorks bool `json:"canCreateWorks"`
	CanEditWorks   bool `json:"canEditWorks"`
	CanDeleteWorks bool `json:"canDeleteWorks"`

	CanViewMaintenance   bool `json:"canViewMaintenance"`
	CanCreateMaintenance bool `json:"canCreateMaintenance"`
	CanEditMaintenance   bool `json:"canEditMaintenance"`
	CanDeleteMaintenance bool `json:"canDeleteMaintenance"`

	CanViewUsers   bool `json:"canViewUsers"`
	CanCreateUsers bool `json:"canCreateUsers"`
	CanEditUsers   bool `json:"canEditUsers"`
	CanDeleteUsers bool `json:"canDeleteUsers"`

	CanViewReports bool `json:"canViewReports"`
	CanExportData  bool `json:"canExportData"`

	CanViewDashboard bool `json:"canViewDashboard"`
	CanViewStats     bool `json:"canViewStats"`
}

// User is one identity. Email is the natural key: lookups always go through
// the normalized (trimmed, lowercased) form, and no two identities may share
// a normalized email.
type User struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	Role        Role        `json:"role"`
	Permissions Permissions `json:"permissions"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt,omitempty"`
}

// Valid reports whether a stored snapshot carries enough to count as a
// recoverable identity. Anything less degrades to "not found".
func (u *User) Valid() bool {
	return u != nil && u.Email != "" && u.Name != ""
}

// AllPermissions returns the full capability set (admin profile).
func AllPermissions() Permissions {
	return Permissions{
		CanViewWorks: true, CanCreateWorks: true, CanEditWorks: true, CanDeleteWorks: true,
		CanViewMaintenance: true, CanCreateMaintenance: true, CanEditMaintenance: true, CanDeleteMaintenance: true,
		CanViewUsers: true, CanCreateUsers: true, CanEditUsers: true, CanDeleteUsers: true,
		CanViewReports: true, CanExportData: true,
		CanViewDashboard: true, CanViewStats: true,
	}
}

// FieldPermissions returns the restricted profile handed to field staff:
// view and edit, but no create/delete, no user management, no export.
func FieldPermissions() Permissions {
	return Permissions{
		CanViewWorks: true, CanEditWorks: true,
		CanViewMaintenance: true, CanEditMaintenance: true,
		CanViewReports: true,
		CanViewDashboard: true, CanViewStats: true,
	}
}
