package postgres

import (
	"context"
	"errors"
	"strings"

	roleDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/role"
	"github.com/frahmantamala/rbac-admin/internal/role"
	"gorm.io/gorm"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) role.RepositoryAPI {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) List(ctx context.Context, params role.ListParams) ([]*roleDatamodel.Role, int64, error) {
	query := r.db.WithContext(ctx).Model(&roleDatamodel.Role{})
	if q := strings.TrimSpace(params.Query); q != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var roles []*roleDatamodel.Role
	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}
	err := query.Offset(params.Offset).Order("name ASC").Find(&roles).Error
	return roles, total, err
}

func (r *RoleRepository) GetByID(ctx context.Context, id string) (*roleDatamodel.Role, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*roleDatamodel.Role, error) {
	return r.first(ctx, "name = ?", name)
}

func (r *RoleRepository) first(ctx context.Context, cond string, arg interface{}) (*roleDatamodel.Role, error) {
	var row roleDatamodel.Role
	err := r.db.WithContext(ctx).Where(cond, arg).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *RoleRepository) Create(ctx context.Context, row *roleDatamodel.Role) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *RoleRepository) Update(ctx context.Context, row *roleDatamodel.Role) error {
	return r.db.WithContext(ctx).Model(row).Select("name", "description", "updated_at").Updates(row).Error
}

func (r *RoleRepository) Delete(ctx context.Context, id string) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&roleDatamodel.Role{})
	return result.RowsAffected, result.Error
}
