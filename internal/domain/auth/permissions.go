package auth

import "context"

const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleHR       = "hr"
	RoleAdmin    = "admin"
)

const (
	PermGoalsRead       = "performance.goals.read"
	PermGoalsWrite      = "performance.goals.write"
	PermGoalsAdmin      = "performance.goals.admin"
	PermReviewsRead     = "performance.reviews.read"
	PermReviewsWrite    = "performance.reviews.write"
	PermReportsRead     = "reports.read"
	PermNotificationsRW = "notifications.manage"
	PermAuditRead       = "audit.read"
)

var DefaultPermissions = []string{
	PermGoalsRead,
	PermGoalsWrite,
	PermGoalsAdmin,
	PermReviewsRead,
	PermReviewsWrite,
	PermReportsRead,
	PermNotificationsRW,
	PermAuditRead,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermGoalsRead,
		PermGoalsWrite,
		PermReviewsRead,
		PermNotificationsRW,
	},
	RoleManager: {
		PermGoalsRead,
		PermGoalsWrite,
		PermReviewsRead,
		PermReviewsWrite,
		PermReportsRead,
		PermNotificationsRW,
	},
	RoleHR: {
		PermGoalsRead,
		PermGoalsWrite,
		PermGoalsAdmin,
		PermReviewsRead,
		PermReviewsWrite,
		PermReportsRead,
		PermNotificationsRW,
		PermAuditRead,
	},
	RoleAdmin: DefaultPermissions,
}

func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

// StaticPermissions resolves permissions from RolePermissions.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(_ context.Context, roleName, permission string) (bool, error) {
	for _, perm := range RolePermissions[roleName] {
		if perm == permission {
			return true, nil
		}
	}
	return false, nil
}
