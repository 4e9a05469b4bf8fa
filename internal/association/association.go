package association

import (
	"time"

	rolePermissionDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/rolepermission"
)

// Association grants one permission to one role.
type Association struct {
	RoleID         string    `json:"role_id"`
	RoleName       string    `json:"role_name,omitempty"`
	PermissionID   string    `json:"permission_id"`
	PermissionName string    `json:"permission_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewAssociation(roleID, permissionID string) *Association {
	return &Association{
		RoleID:       roleID,
		PermissionID: permissionID,
		CreatedAt:    time.Now(),
	}
}

func ToDataModel(a *Association) *rolePermissionDatamodel.RolePermission {
	return &rolePermissionDatamodel.RolePermission{
		RoleID:       a.RoleID,
		PermissionID: a.PermissionID,
		CreatedAt:    a.CreatedAt,
	}
}

func FromView(v *rolePermissionDatamodel.RolePermissionView) *Association {
	return &Association{
		RoleID:         v.RoleID,
		RoleName:       v.RoleName,
		PermissionID:   v.PermissionID,
		PermissionName: v.PermissionName,
		CreatedAt:      v.CreatedAt,
	}
}
