package domain

import "fmt"

// Permission is a named atomic capability granted through a role.
type Permission string

// Permission constants. The server owns this vocabulary; CheckVocabulary in
// internal/authz reports drift between this list and the server's.
const (
	PermUserRead   Permission = "USER_READ"
	PermUserCreate Permission = "USER_CREATE"
	PermUserUpdate Permission = "USER_UPDATE"
	PermUserDelete Permission = "USER_DELETE"

	PermRoleRead   Permission = "ROLE_READ"
	PermRoleCreate Permission = "ROLE_CREATE"
	PermRoleUpdate Permission = "ROLE_UPDATE"
	PermRoleDelete Permission = "ROLE_DELETE"

	PermItemRead   Permission = "ITEM_READ"
	PermItemCreate Permission = "ITEM_CREATE"
	PermItemUpdate Permission = "ITEM_UPDATE"
	PermItemDelete Permission = "ITEM_DELETE"

	PermSupplierRead   Permission = "SUPPLIER_READ"
	PermSupplierCreate Permission = "SUPPLIER_CREATE"
	PermSupplierUpdate Permission = "SUPPLIER_UPDATE"
	PermSupplierDelete Permission = "SUPPLIER_DELETE"

	PermProjectRead   Permission = "PROJECT_READ"
	PermProjectCreate Permission = "PROJECT_CREATE"
	PermProjectUpdate Permission = "PROJECT_UPDATE"
	PermProjectDelete Permission = "PROJECT_DELETE"

	PermNotificationRead   Permission = "NOTIFICATION_READ"
	PermNotificationUpdate Permission = "NOTIFICATION_UPDATE"

	PermAuditRead Permission = "AUDIT_READ"
)

// AllPermissions is the full set of permissions the console knows about.
var AllPermissions = []Permission{
	PermUserRead, PermUserCreate, PermUserUpdate, PermUserDelete,
	PermRoleRead, PermRoleCreate, PermRoleUpdate, PermRoleDelete,
	PermItemRead, PermItemCreate, PermItemUpdate, PermItemDelete,
	PermSupplierRead, PermSupplierCreate, PermSupplierUpdate, PermSupplierDelete,
	PermProjectRead, PermProjectCreate, PermProjectUpdate, PermProjectDelete,
	PermNotificationRead, PermNotificationUpdate,
	PermAuditRead,
}

var knownPermissions = func() map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(AllPermissions))
	for _, p := range AllPermissions {
		m[p] = struct{}{}
	}
	return m
}()

// Known returns true if p is part of the console's vocabulary.
func (p Permission) Known() bool {
	_, ok := knownPermissions[p]
	return ok
}

// ParsePermission converts a raw name into a Permission, rejecting names the
// console does not know. Matching is exact and case-sensitive.
func ParsePermission(s string) (Permission, error) {
	p := Permission(s)
	if !p.Known() {
		return "", fmt.Errorf("unknown permission %q", s)
	}
	return p, nil
}

// Role is the single role name carried by a session.
type Role string

const (
	// RoleAdmin can reach every screen, including the audit log.
	RoleAdmin Role = "ADMIN"

	// RoleManager runs inventory, suppliers and projects.
	RoleManager Role = "MANAGER"

	// RoleStaff works inventory day to day.
	RoleStaff Role = "STAFF"
)

// ValidRoles is the set of role names the console knows about.
var ValidRoles = []Role{RoleAdmin, RoleManager, RoleStaff}

// Known returns true if r is part of the console's role vocabulary.
func (r Role) Known() bool {
	for _, v := range ValidRoles {
		if v == r {
			return true
		}
	}
	return false
}
