package postgres

import (
	"context"

	"github.com/frahmantamala/rbac-admin/internal/association"
	rolePermissionDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/rolepermission"
	"gorm.io/gorm"
)

type AssociationRepository struct {
	db *gorm.DB
}

func NewAssociationRepository(db *gorm.DB) *AssociationRepository {
	return &AssociationRepository{db: db}
}

var _ association.RepositoryAPI = (*AssociationRepository)(nil)

func (r *AssociationRepository) List(ctx context.Context, filter association.Filter) ([]*rolePermissionDatamodel.RolePermissionView, int64, error) {
	query := r.db.WithContext(ctx).
		Table("role_permissions AS rp").
		Joins("JOIN roles AS r ON r.id = rp.role_id").
		Joins("JOIN permissions AS p ON p.id = rp.permission_id")
	if filter.RoleID != "" {
		query = query.Where("rp.role_id = ?", filter.RoleID)
	}
	if filter.PermissionID != "" {
		query = query.Where("rp.permission_id = ?", filter.PermissionID)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := query.
		Select("rp.role_id, r.name AS role_name, rp.permission_id, p.name AS permission_name, rp.created_at").
		Order("r.name ASC, p.name ASC")
	if filter.Limit > 0 {
		page = page.Limit(filter.Limit)
	}

	var views []*rolePermissionDatamodel.RolePermissionView
	err := page.Offset(filter.Offset).Scan(&views).Error
	return views, total, err
}

func (r *AssociationRepository) Exists(ctx context.Context, roleID, permissionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&rolePermissionDatamodel.RolePermission{}).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Count(&count).Error
	return count > 0, err
}

func (r *AssociationRepository) Create(ctx context.Context, rp *rolePermissionDatamodel.RolePermission) error {
	return r.db.WithContext(ctx).Create(rp).Error
}

func (r *AssociationRepository) Delete(ctx context.Context, roleID, permissionID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&rolePermissionDatamodel.RolePermission{})
	return result.RowsAffected, result.Error
}

func (r *AssociationRepository) DeleteByRoleID(ctx context.Context, roleID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("role_id = ?", roleID).
		Delete(&rolePermissionDatamodel.RolePermission{})
	return result.RowsAffected, result.Error
}

func (r *AssociationRepository) DeleteByPermissionID(ctx context.Context, permissionID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("permission_id = ?", permissionID).
		Delete(&rolePermissionDatamodel.RolePermission{})
	return result.RowsAffected, result.Error
}
