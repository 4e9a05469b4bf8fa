package permission

import (
	"strings"
	"time"

	errors "github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/core/common/validation"
)

type CreatePermissionDTO struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

func (dto *CreatePermissionDTO) Normalize() {
	dto.Name = strings.TrimSpace(dto.Name)
	if dto.Description != nil {
		d := strings.TrimSpace(*dto.Description)
		dto.Description = &d
	}
}

func (dto *CreatePermissionDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	validation.PermissionName(v, "name", dto.Name)
	validation.Description(v, "description", dto.Description)
	return v.Validate()
}

// UpdatePermissionDTO replaces the name and description of a permission. A missing or empty
// description clears it.
type UpdatePermissionDTO struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

func (dto *UpdatePermissionDTO) Normalize() {
	dto.Name = strings.TrimSpace(dto.Name)
	if dto.Description != nil {
		d := strings.TrimSpace(*dto.Description)
		dto.Description = &d
	}
}

func (dto *UpdatePermissionDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	validation.PermissionName(v, "name", dto.Name)
	validation.Description(v, "description", dto.Description)
	return v.Validate()
}

type ListParams struct {
	Query  string
	Limit  int
	Offset int
}

type PermissionResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type PermissionsResponse struct {
	Permissions []PermissionResponse `json:"permissions"`
	Total       int64                `json:"total"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
}

type DeleteResult struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	AssociationsRemoved int64  `json:"associations_removed"`
}
