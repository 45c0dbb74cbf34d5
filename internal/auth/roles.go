package auth

import "errors"

// Role is the authorisation tier carried in a token.
type Role string

const (
	// RoleViewer may read devices and accessories.
	RoleViewer Role = "viewer"

	// RoleInstaller may also operate, unpair and rediscover devices.
	RoleInstaller Role = "installer"
)

// Permission names a capability checked by the API.
type Permission string

const (
	PermDeviceRead       Permission = "device:read"
	PermDeviceOperate    Permission = "device:operate"
	PermDeviceCommission Permission = "device:commission"
	PermAuditRead        Permission = "audit:read"
)

var rolePermissions = map[Role][]Permission{
	RoleViewer: {PermDeviceRead},
	RoleInstaller: {
		PermDeviceRead,
		PermDeviceOperate,
		PermDeviceCommission,
		PermAuditRead,
	},
}

var (
	ErrTokenInvalid = errors.New("auth: invalid token")
	ErrInvalidRole  = errors.New("auth: invalid role")
	ErrForbidden    = errors.New("auth: insufficient permissions")
)

// IsValidRole reports whether r is a known role.
func IsValidRole(r Role) bool {
	_, ok := rolePermissions[r]
	return ok
}

// HasPermission reports whether role grants perm.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}
