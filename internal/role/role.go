package role

import (
	"time"

	roleDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/role"
	"github.com/google/uuid"
)

type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r *Role) ToResponse() RoleResponse {
	return RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (r *Role) Update(name string, description *string) {
	r.Name = name
	r.Description = blankToNil(description)
	r.UpdatedAt = time.Now()
}

func NewRole(name string, description *string) *Role {
	now := time.Now()
	return &Role{
		ID:          uuid.NewString(),
		Name:        name,
		Description: blankToNil(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func blankToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}

func ToDataModel(r *Role) *roleDatamodel.Role {
	return &roleDatamodel.Role{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func FromDataModel(r *roleDatamodel.Role) *Role {
	return &Role{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
