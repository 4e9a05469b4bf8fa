package postgres

import (
	"context"
	"errors"
	"strings"

	permissionDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/permission"
	"github.com/frahmantamala/rbac-admin/internal/permission"
	"gorm.io/gorm"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.RepositoryAPI {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) List(ctx context.Context, params permission.ListParams) ([]*permissionDatamodel.Permission, int64, error) {
	query := r.db.WithContext(ctx).Model(&permissionDatamodel.Permission{})
	if q := strings.TrimSpace(params.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?", pattern, pattern)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var permissions []*permissionDatamodel.Permission
	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}
	err := query.Offset(params.Offset).Order("name ASC").Find(&permissions).Error
	return permissions, total, err
}

func (r *PermissionRepository) GetByID(ctx context.Context, id string) (*permissionDatamodel.Permission, error) {
	var p permissionDatamodel.Permission
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PermissionRepository) GetByName(ctx context.Context, name string) (*permissionDatamodel.Permission, error) {
	var p permissionDatamodel.Permission
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PermissionRepository) Create(ctx context.Context, p *permissionDatamodel.Permission) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PermissionRepository) Update(ctx context.Context, p *permissionDatamodel.Permission) error {
	return r.db.WithContext(ctx).Model(p).Select("name", "description", "updated_at").Updates(p).Error
}

func (r *PermissionRepository) Delete(ctx context.Context, id string) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&permissionDatamodel.Permission{})
	return result.RowsAffected, result.Error
}
