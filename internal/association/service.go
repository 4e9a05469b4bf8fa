package association

import (
	"context"
	"fmt"
	"log/slog"

	errors "github.com/frahmantamala/rbac-admin/internal"
	rolePermissionDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/rolepermission"
	"github.com/frahmantamala/rbac-admin/internal/core/events"
	"github.com/frahmantamala/rbac-admin/internal/permission"
	"github.com/frahmantamala/rbac-admin/internal/role"
)

type RepositoryAPI interface {
	List(ctx context.Context, filter Filter) ([]*rolePermissionDatamodel.RolePermissionView, int64, error)
	Exists(ctx context.Context, roleID, permissionID string) (bool, error)
	Create(ctx context.Context, rp *rolePermissionDatamodel.RolePermission) error
	Delete(ctx context.Context, roleID, permissionID string) (int64, error)
	DeleteByRoleID(ctx context.Context, roleID string) (int64, error)
	DeleteByPermissionID(ctx context.Context, permissionID string) (int64, error)
}

type RoleReader interface {
	GetByID(ctx context.Context, id string) (*role.Role, error)
}

type PermissionReader interface {
	GetByID(ctx context.Context, id string) (*permission.Permission, error)
}

type Service struct {
	repo        RepositoryAPI
	roles       RoleReader
	permissions PermissionReader
	publisher   events.Publisher
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, roles RoleReader, permissions PermissionReader, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:        repo,
		roles:       roles,
		permissions: permissions,
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *Service) List(ctx context.Context, filter Filter) (*AssociationsResponse, error) {
	if appErr := filter.Validate(); appErr != nil {
		return nil, appErr
	}

	views, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list associations", "error", err)
		return nil, errors.MapDatabaseError(err)
	}

	associations := make([]*Association, 0, len(views))
	for _, v := range views {
		associations = append(associations, FromView(v))
	}

	return &AssociationsResponse{
		Associations: associations,
		Total:        total,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}, nil
}

func (s *Service) Exists(ctx context.Context, roleID, permissionID string) (bool, error) {
	exists, err := s.repo.Exists(ctx, roleID, permissionID)
	if err != nil {
		s.logger.Error("failed to check association", "role_id", roleID, "permission_id", permissionID, "error", err)
		return false, errors.MapDatabaseError(err)
	}
	return exists, nil
}

// Create grants the permission to the role. Both must exist and the pair must be new.
func (s *Service) Create(ctx context.Context, dto AssociationDTO) (*Association, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	r, err := s.roles.GetByID(ctx, dto.RoleID)
	if err != nil {
		return nil, err
	}
	p, err := s.permissions.GetByID(ctx, dto.PermissionID)
	if err != nil {
		return nil, err
	}

	exists, err := s.Exists(ctx, r.ID, p.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, duplicateError(r.Name, p.Name)
	}

	a := NewAssociation(r.ID, p.ID)
	row := ToDataModel(a)
	if err := s.repo.Create(ctx, row); err != nil {
		mapped := errors.MapDatabaseError(err)
		switch {
		case mapped.Is(errors.ErrUniqueViolation):
			return nil, duplicateError(r.Name, p.Name).WithCause(err)
		case mapped.Is(errors.ErrForeignKeyViolation):
			return nil, errors.NewNotFoundError("Role or permission no longer exists").WithCause(err)
		}
		s.logger.Error("failed to create association", "role_id", r.ID, "permission_id", p.ID, "error", err)
		return nil, mapped
	}

	a.CreatedAt = row.CreatedAt
	a.RoleName = r.Name
	a.PermissionName = p.Name

	s.logger.Info("association created", "role", r.Name, "permission", p.Name)
	s.publish(ctx, events.NewAssociationEvent(events.EventTypeAssociationCreated, r.ID, p.ID))
	return a, nil
}

// Delete revokes the permission from the role. A missing pair is reported as not found.
func (s *Service) Delete(ctx context.Context, dto AssociationDTO) error {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return appErr
	}

	deleted, err := s.repo.Delete(ctx, dto.RoleID, dto.PermissionID)
	if err != nil {
		s.logger.Error("failed to delete association", "role_id", dto.RoleID, "permission_id", dto.PermissionID, "error", err)
		return errors.MapDatabaseError(err)
	}
	if deleted == 0 {
		return errors.NewNotFoundError("Association does not exist")
	}

	s.logger.Info("association deleted", "role_id", dto.RoleID, "permission_id", dto.PermissionID)
	s.publish(ctx, events.NewAssociationEvent(events.EventTypeAssociationDeleted, dto.RoleID, dto.PermissionID))
	return nil
}

func (s *Service) DeleteByRoleID(ctx context.Context, roleID string) (int64, error) {
	n, err := s.repo.DeleteByRoleID(ctx, roleID)
	if err != nil {
		return 0, errors.MapDatabaseError(err)
	}
	return n, nil
}

func (s *Service) DeleteByPermissionID(ctx context.Context, permissionID string) (int64, error) {
	n, err := s.repo.DeleteByPermissionID(ctx, permissionID)
	if err != nil {
		return 0, errors.MapDatabaseError(err)
	}
	return n, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

func duplicateError(roleName, permissionName string) *errors.AppError {
	return errors.NewConflictError(fmt.Sprintf("Role '%s' already has permission '%s'", roleName, permissionName))
}
