package tui

import (
	"fmt"

	"github.com/naveenspark/opsdesk/internal/guard"
	"github.com/naveenspark/opsdesk/pkg/domain"
)

// Route names.
const (
	RouteDashboard     = "dashboard"
	RouteUsers         = "users"
	RouteRoles         = "roles"
	RouteInventory     = "inventory"
	RouteSuppliers     = "suppliers"
	RouteProjects      = "projects"
	RouteNotifications = "notifications"
	RouteAudit         = "audit"
)

// consoleRoutes is the console's route table in tab order.
var consoleRoutes = []guard.Route{
	{Name: RouteDashboard, Title: "Dashboard", Key: "d"},
	{Name: RouteUsers, Title: "Users", Key: "1", Requirement: guard.Requirement{Permission: domain.PermUserRead}},
	{Name: RouteRoles, Title: "Roles", Key: "2", Requirement: guard.Requirement{Permission: domain.PermRoleRead}},
	{Name: RouteInventory, Title: "Inventory", Key: "3", Requirement: guard.Requirement{Permission: domain.PermItemRead}},
	{Name: RouteSuppliers, Title: "Suppliers", Key: "4", Requirement: guard.Requirement{Permission: domain.PermSupplierRead}},
	{Name: RouteProjects, Title: "Projects", Key: "5", Requirement: guard.Requirement{Permission: domain.PermProjectRead}},
	{Name: RouteNotifications, Title: "Notifications", Key: "6", Requirement: guard.Requirement{Permission: domain.PermNotificationRead}},
	{Name: RouteAudit, Title: "Audit log", Key: "7", Requirement: guard.Requirement{Permission: domain.PermAuditRead}},
}

// NewRoutes builds the console's route registry. landing must name a route
// without requirements; "" means the dashboard.
func NewRoutes(landing string) (*guard.Registry, error) {
	r := guard.NewRegistry(landing)
	for _, rt := range consoleRoutes {
		if err := r.Register(rt); err != nil {
			return nil, fmt.Errorf("tui.NewRoutes: %w", err)
		}
	}
	if _, ok := r.Lookup(r.Landing()); !ok {
		return nil, fmt.Errorf("tui.NewRoutes: landing route %q not found (have %v)", r.Landing(), r.Names())
	}
	return r, nil
}
