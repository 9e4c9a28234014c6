package domain

// Permission tags carried by an authenticated profile.
const (
	PermissionSuperAdmin = "super_admin"
	PermissionAdmin      = "admin"
	PermissionCGM        = "cgm"
	PermissionHOD        = "hod"
	PermissionSubHOD     = "sub_hod"
)

// Caller identifies who is invoking a workflow operation.
type Caller struct {
	ID          string
	Permissions []string
}

// Has reports whether the caller holds the permission.
func (c Caller) Has(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// HasAny reports whether the caller holds at least one of the permissions.
func (c Caller) HasAny(permissions ...string) bool {
	for _, p := range permissions {
		if c.Has(p) {
			return true
		}
	}
	return false
}
