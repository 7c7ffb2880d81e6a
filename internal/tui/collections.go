package tui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/google/uuid"

	"github.com/naveenspark/opsdesk/pkg/client"
	"github.com/naveenspark/opsdesk/pkg/domain"
)

// collections returns the list screens keyed by route.
func collections() map[string]collection {
	all := []collection{
		usersCollection(),
		rolesCollection(),
		inventoryCollection(),
		suppliersCollection(),
		projectsCollection(),
		notificationsCollection(),
		auditCollection(),
	}
	m := make(map[string]collection, len(all))
	for _, c := range all {
		m[c.route] = c
	}
	return m
}

func usersCollection() collection {
	return collection{
		route: RouteUsers,
		title: "Users",
		empty: "no users yet",
		columns: []table.Column{
			{Title: "Email", Width: 28},
			{Title: "Name", Width: 20},
			{Title: "Role", Width: 8},
			{Title: "Active", Width: 6},
			{Title: "Last login", Width: 12},
		},
		load: func(ctx context.Context, c *client.Client) ([]record, error) {
			users, err := c.ListUsers(ctx, pageSize, 0)
			if err != nil {
				return nil, err
			}
			out := make([]record, len(users))
			for i, u := range users {
				last := "never"
				if u.LastLoginAt != nil {
					last = formatTime(*u.LastLoginAt)
				}
				out[i] = record{id: u.ID.String(), cells: table.Row{
					truncStr(u.Email, 28), truncStr(u.DisplayName, 20), string(u.Role), yesNo(u.Active), last,
				}}
			}
			return out, nil
		},
	}
}

func rolesCollection() collection {
	return collection{
		route: RouteRoles,
		title: "Roles",
		empty: "no roles defined",
		columns: []table.Column{
			{Title: "Role", Width: 10},
			{Title: "Description", Width: 36},
			{Title: "Perms", Width: 6},
			{Title: "Users", Width: 6},
		},
		load: func(ctx context.Context, c *client.Client) ([]record, error) {
			roles, err := c.ListRoles(ctx)
			if err != nil {
				return nil, err
			}
			return roleRecords(roles), nil
		},
	}
}

// roleRecords marks roles the console has no constant for with a trailing "?".
func roleRecords(roles []domain.RoleInfo) []record {
	out := make([]record, len(roles))
	for i, r := range roles {
		name := string(r.Name)
		if !r.Name.Known() {
			name = truncStr(name, 9) + "?"
		}
		out[i] = record{id: r.ID.String(), cells: table.Row{
			name, truncStr(r.Description, 36), strconv.Itoa(len(r.Permissions)), strconv.Itoa(r.UserCount),
		}}
	}
	return out
}

func inventoryCollection() collection {
	return collection{
		route: RouteInventory,
		title: "Items",
		empty: "inventory is empty",
		columns: []table.Column{
			{Title: "SKU", Width: 12},
			{Title: "Name", Width: 24},
			{Title: "Category", Width: 12},
			{Title: "Qty", Width: 7},
			{Title: "Reorder", Width: 7},
			{Title: "Price", Width: 9},
		},
		load: func(ctx context.Context, c *client.Client) ([]record, error) {
			items, err := c.ListItems(ctx, "", pageSize, 0)
			if err != nil {
				return nil, err
			}
			return itemRecords(items), nil
		},
		action: &rowAction{
			key:   "x",
			label: "delete",
			perm:  domain.PermItemDelete,
			done:  "item deleted",
			run: func(ctx context.Context, c *client.Client, id string) error {
				uid, err := uuid.Parse(id)
				if err != nil {
					return fmt.Errorf("bad item id: %w", err)
				}
				return c.DeleteItem(ctx, uid)
			},
		},
	}
}

func itemRecords(items []domain.Item) []record {
	out := make([]record, len(items))
	for i, it := range items {
		qty := strconv.Itoa(it.Quantity)
		if it.LowStock() {
			qty += " !"
		}
		out[i] = record{id: it.ID.String(), cells: table.Row{
			truncStr(it.SKU, 12), truncStr(it.Name, 24), truncStr(it.Category, 12),
			qty, strconv.Itoa(it.ReorderLevel), fmt.Sprintf("%.2f", it.UnitPrice),
		}}
	}
	return out
}

func suppliersCollection() collection {
	return collection{
		route: RouteSuppliers,
		title: "Suppliers",
		empty: "no suppliers yet",
		columns: []table.Column{
			{Title: "Name", Width: 24},
			{Title: "Contact", Width: 18},
			{Title: "Email", Width: 26},
			{Title: "Items", Width: 6},
		},
		load: func(ctx context.Context, c *client.Client) ([]record, error) {
			suppliers, err := c.ListSuppliers(ctx, pageSize, 0)
			if err != nil {
				return nil, err
			}
			out := make([]record, len(suppliers))
			for i, s := range suppliers {
				out[i] = record{id: s.ID.String(), cells: table.Row{
					truncStr(s.Name, 24), truncStr(s.ContactName, 18), truncStr(s.Email, 26), strconv.Itoa(s.ItemCount),
				}}
			}
			return out, nil
		},
	}
}

func projectsCollection() collection {
	return collection{
		route: RouteProjects,
		title: "Projects",
		empty: "no projects yet",
		columns: []table.Column{
			{Title: "Name", Width: 26},
			{Title: "Status", Width: 12},
			{Title: "Owner", Width: 18},
			{Title: "Due", Width: 10},
		},
		load: func(ctx context.Context, c *client.Client) ([]record, error) {
			projects, err := c.ListProjects(ctx, pageSize, 0)
			if err != nil {
				return nil, err
			}
			out := make([]record, len(projects))
			for i, p := range projects {
				due := "-"
				if p.DueAt != nil {
					due = p.DueAt.Format("2006-01-02")
				}
				out[i] = record{id: p.ID.String(), cells: table.Row{
					truncStr(p.Name, 26), p.Status, truncStr(p.OwnerName, 18), due,
				}}
			}
			return out, nil
		},
	}
}

func notificationsCollection() collection {
	return collection{
		route: RouteNotifications,
		title: "Notifications",
		empty: "you're all caught up",
		columns: []table.Column{
			{Title: " ", Width: 1},
			{Title: "Title", Width: 34},
			{Title: "Type", Width: 12},
			{Title: "When", Width: 10},
		},
		load: func(ctx context.Context, c *client.Client) ([]record, error) {
			ns, err := c.ListNotifications(ctx, false)
			if err != nil {
				return nil, err
			}
			out := make([]record, len(ns))
			for i, n := range ns {
				dot := "•"
				if n.Read {
					dot = " "
				}
				out[i] = record{id: n.ID.String(), cells: table.Row{
					dot, truncStr(n.Title, 34), n.Type, formatTime(n.CreatedAt),
				}}
			}
			return out, nil
		},
		action: &rowAction{
			key:   "r",
			label: "mark read",
			perm:  domain.PermNotificationUpdate,
			done:  "marked as read",
			run: func(ctx context.Context, c *client.Client, id string) error {
				uid, err := uuid.Parse(id)
				if err != nil {
					return fmt.Errorf("bad notification id: %w", err)
				}
				return c.MarkNotificationRead(ctx, uid)
			},
		},
	}
}

func auditCollection() collection {
	return collection{
		route: RouteAudit,
		title: "Entries",
		empty: "audit log is empty",
		columns: []table.Column{
			{Title: "When", Width: 10},
			{Title: "Actor", Width: 24},
			{Title: "Action", Width: 10},
			{Title: "Entity", Width: 12},
			{Title: "Detail", Width: 24},
		},
		load: func(ctx context.Context, c *client.Client) ([]record, error) {
			entries, err := c.ListAuditLog(ctx, pageSize, 0)
			if err != nil {
				return nil, err
			}
			out := make([]record, len(entries))
			for i, e := range entries {
				out[i] = record{id: e.ID.String(), cells: table.Row{
					formatTime(e.CreatedAt), truncStr(e.ActorEmail, 24), e.Action, e.Entity, truncStr(e.Detail, 24),
				}}
			}
			return out, nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
