package postgres

import (
	"context"
	"fmt"

	"github.com/frahmantamala/rbac-admin/internal/command"
	"github.com/jmoiron/sqlx"
)

const (
	selectPermissionNames = `SELECT name FROM permissions ORDER BY name`
	selectRoleNames       = `SELECT name FROM roles ORDER BY name`
	selectAssignedPairs   = `
		SELECT r.name AS role_name, p.name AS permission_name
		FROM role_permissions rp
		JOIN roles r ON r.id = rp.role_id
		JOIN permissions p ON p.id = rp.permission_id
		ORDER BY r.name, p.name`
)

// SnapshotRepository reads the name-level inventory with plain SQL.
type SnapshotRepository struct {
	db *sqlx.DB
}

func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

var _ command.SnapshotReader = (*SnapshotRepository)(nil)

func (r *SnapshotRepository) Snapshot(ctx context.Context) (*command.Snapshot, error) {
	permissions := []string{}
	if err := r.db.SelectContext(ctx, &permissions, selectPermissionNames); err != nil {
		return nil, fmt.Errorf("load permission names: %w", err)
	}

	roles := []string{}
	if err := r.db.SelectContext(ctx, &roles, selectRoleNames); err != nil {
		return nil, fmt.Errorf("load role names: %w", err)
	}

	pairs := []command.Pair{}
	if err := r.db.SelectContext(ctx, &pairs, selectAssignedPairs); err != nil {
		return nil, fmt.Errorf("load assignments: %w", err)
	}

	return command.NewSnapshot(permissions, roles, pairs), nil
}
