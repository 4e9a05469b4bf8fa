package role

import (
	"strings"
	"time"

	errors "github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/core/common/validation"
)

// RoleDTO is the request body for both creating and replacing a role.
type RoleDTO struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type (
	CreateRoleDTO = RoleDTO
	UpdateRoleDTO = RoleDTO
)

func (dto *RoleDTO) Normalize() {
	dto.Name = strings.TrimSpace(dto.Name)
	if dto.Description != nil {
		d := strings.TrimSpace(*dto.Description)
		dto.Description = &d
	}
}

func (dto *RoleDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	validation.RoleName(v, "name", dto.Name)
	validation.Description(v, "description", dto.Description)
	return v.Validate()
}

type ListParams struct {
	Query  string
	Limit  int
	Offset int
}

type RoleResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type RolesResponse struct {
	Roles  []RoleResponse `json:"roles"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type DeleteResult struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	AssociationsRemoved int64  `json:"associations_removed"`
}
