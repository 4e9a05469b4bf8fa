package permission

import (
	"time"

	permissionDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/permission"
	"github.com/google/uuid"
)

type Permission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Permission) ToResponse() PermissionResponse {
	return PermissionResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (p *Permission) Rename(name string) {
	p.Name = name
	p.UpdatedAt = time.Now()
}

func (p *Permission) Describe(description *string) {
	p.Description = normalizeDescription(description)
	p.UpdatedAt = time.Now()
}

func NewPermission(name string, description *string) *Permission {
	now := time.Now()
	return &Permission{
		ID:          uuid.NewString(),
		Name:        name,
		Description: normalizeDescription(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// normalizeDescription stores blank descriptions as NULL.
func normalizeDescription(description *string) *string {
	if description == nil || *description == "" {
		return nil
	}
	d := *description
	return &d
}

func ToDataModel(p *Permission) *permissionDatamodel.Permission {
	return &permissionDatamodel.Permission{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func FromDataModel(p *permissionDatamodel.Permission) *Permission {
	return &Permission{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
