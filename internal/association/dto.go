package association

import (
	"strings"

	errors "github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/core/common/validation"
)

type AssociationDTO struct {
	RoleID       string `json:"role_id"`
	PermissionID string `json:"permission_id"`
}

func (dto *AssociationDTO) Normalize() {
	dto.RoleID = strings.TrimSpace(dto.RoleID)
	dto.PermissionID = strings.TrimSpace(dto.PermissionID)
}

func (dto *AssociationDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("role_id", dto.RoleID).Required().UUID()
	v.Field("permission_id", dto.PermissionID).Required().UUID()
	return v.Validate()
}

// Filter narrows a listing to one role and/or one permission.
type Filter struct {
	RoleID       string
	PermissionID string
	Limit        int
	Offset       int
}

func (f Filter) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("role_id", f.RoleID).UUID()
	v.Field("permission_id", f.PermissionID).UUID()
	return v.Validate()
}

type AssociationsResponse struct {
	Associations []*Association `json:"associations"`
	Total        int64          `json:"total"`
	Limit        int            `json:"limit"`
	Offset       int            `json:"offset"`
}
