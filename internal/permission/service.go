package permission

import (
	"context"
	"fmt"
	"log/slog"

	errors "github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/core/common/validation"
	permissionDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/permission"
	"github.com/frahmantamala/rbac-admin/internal/core/events"
)

type RepositoryAPI interface {
	List(ctx context.Context, params ListParams) ([]*permissionDatamodel.Permission, int64, error)
	GetByID(ctx context.Context, id string) (*permissionDatamodel.Permission, error)
	GetByName(ctx context.Context, name string) (*permissionDatamodel.Permission, error)
	Create(ctx context.Context, permission *permissionDatamodel.Permission) error
	Update(ctx context.Context, permission *permissionDatamodel.Permission) error
	Delete(ctx context.Context, id string) (int64, error)
}

// AssociationCleaner removes every role assignment of a permission.
type AssociationCleaner interface {
	DeleteByPermissionID(ctx context.Context, permissionID string) (int64, error)
}

type Service struct {
	repo      RepositoryAPI
	cleaner   AssociationCleaner
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, cleaner AssociationCleaner, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		cleaner:   cleaner,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) List(ctx context.Context, params ListParams) (*PermissionsResponse, error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		s.logger.Error("failed to list permissions", "error", err)
		return nil, errors.MapDatabaseError(err)
	}

	responses := make([]PermissionResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, FromDataModel(row).ToResponse())
	}

	return &PermissionsResponse{
		Permissions: responses,
		Total:       total,
		Limit:       params.Limit,
		Offset:      params.Offset,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Permission, error) {
	if appErr := validation.ValidateID("id", id); appErr != nil {
		return nil, appErr
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get permission", "id", id, "error", err)
		return nil, errors.MapDatabaseError(err)
	}
	if row == nil {
		return nil, errors.NewNotFoundError("Permission not found")
	}
	return FromDataModel(row), nil
}

func (s *Service) GetByName(ctx context.Context, name string) (*Permission, error) {
	row, err := s.repo.GetByName(ctx, name)
	if err != nil {
		s.logger.Error("failed to get permission by name", "name", name, "error", err)
		return nil, errors.MapDatabaseError(err)
	}
	if row == nil {
		return nil, errors.NewNotFoundError(fmt.Sprintf("Permission '%s' does not exist", name))
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto CreatePermissionDTO) (*Permission, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	existing, err := s.repo.GetByName(ctx, dto.Name)
	if err != nil {
		s.logger.Error("failed to check permission name", "name", dto.Name, "error", err)
		return nil, errors.MapDatabaseError(err)
	}
	if existing != nil {
		return nil, duplicateError(dto.Name)
	}

	p := NewPermission(dto.Name, dto.Description)
	row := ToDataModel(p)
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, s.storeError("create", dto.Name, err)
	}

	created := FromDataModel(row)
	s.logger.Info("permission created", "id", created.ID, "name", created.Name)
	s.publish(ctx, events.NewPermissionEvent(events.EventTypePermissionCreated, created.ID, created.Name, 0))
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, dto UpdatePermissionDTO) (*Permission, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != p.Name {
		existing, err := s.repo.GetByName(ctx, dto.Name)
		if err != nil {
			s.logger.Error("failed to check permission name", "name", dto.Name, "error", err)
			return nil, errors.MapDatabaseError(err)
		}
		if existing != nil && existing.ID != p.ID {
			return nil, duplicateError(dto.Name)
		}
		p.Rename(dto.Name)
	}
	p.Describe(dto.Description)

	row := ToDataModel(p)
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, s.storeError("update", dto.Name, err)
	}

	updated := FromDataModel(row)
	s.logger.Info("permission updated", "id", updated.ID, "name", updated.Name)
	s.publish(ctx, events.NewPermissionEvent(events.EventTypePermissionUpdated, updated.ID, updated.Name, 0))
	return updated, nil
}

// Delete removes every association referencing the permission and then the permission itself.
// The two steps are not atomic; the association step may remove nothing.
func (s *Service) Delete(ctx context.Context, id string) (*DeleteResult, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	removed, err := s.cleaner.DeleteByPermissionID(ctx, p.ID)
	if err != nil {
		s.logger.Error("failed to remove permission associations", "id", p.ID, "error", err)
		return nil, errors.MapDatabaseError(err)
	}

	deleted, err := s.repo.Delete(ctx, p.ID)
	if err != nil {
		s.logger.Error("failed to delete permission", "id", p.ID, "error", err)
		return nil, errors.MapDatabaseError(err)
	}
	if deleted == 0 {
		return nil, errors.NewNotFoundError("Permission not found")
	}

	s.logger.Info("permission deleted", "id", p.ID, "name", p.Name, "associations_removed", removed)
	s.publish(ctx, events.NewPermissionEvent(events.EventTypePermissionDeleted, p.ID, p.Name, removed))
	return &DeleteResult{ID: p.ID, Name: p.Name, AssociationsRemoved: removed}, nil
}

func (s *Service) storeError(op, name string, err error) error {
	mapped := errors.MapDatabaseError(err)
	if mapped.Is(errors.ErrUniqueViolation) {
		s.logger.Warn("permission name taken concurrently", "op", op, "name", name)
		return duplicateError(name).WithCause(err)
	}
	s.logger.Error("failed to store permission", "op", op, "name", name, "error", err)
	return mapped
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

func duplicateError(name string) *errors.AppError {
	return errors.NewConflictError(fmt.Sprintf("Permission '%s' already exists", name))
}
