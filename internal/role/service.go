package role

import (
	"context"
	"fmt"
	"log/slog"

	errors "github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/core/common/validation"
	roleDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/role"
	"github.com/frahmantamala/rbac-admin/internal/core/events"
)

type RepositoryAPI interface {
	List(ctx context.Context, params ListParams) ([]*roleDatamodel.Role, int64, error)
	GetByID(ctx context.Context, id string) (*roleDatamodel.Role, error)
	GetByName(ctx context.Context, name string) (*roleDatamodel.Role, error)
	Create(ctx context.Context, role *roleDatamodel.Role) error
	Update(ctx context.Context, role *roleDatamodel.Role) error
	Delete(ctx context.Context, id string) (int64, error)
}

// AssociationCleaner removes every permission assignment of a role.
type AssociationCleaner interface {
	DeleteByRoleID(ctx context.Context, roleID string) (int64, error)
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

func (s *Service) List(ctx context.Context, params ListParams) (*RolesResponse, error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		s.logger.Error("failed to list roles", "error", err)
		return nil, errors.MapDatabaseError(err)
	}

	responses := make([]RoleResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, FromDataModel(row).ToResponse())
	}

	return &RolesResponse{
		Roles:  responses,
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Role, error) {
	if appErr := validation.ValidateID("id", id); appErr != nil {
		return nil, appErr
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get role", "id", id, "error", err)
		return nil, errors.MapDatabaseError(err)
	}
	if row == nil {
		return nil, errors.NewNotFoundError("Role not found")
	}
	return FromDataModel(row), nil
}

func (s *Service) GetByName(ctx context.Context, name string) (*Role, error) {
	row, err := s.repo.GetByName(ctx, name)
	if err != nil {
		s.logger.Error("failed to get role by name", "name", name, "error", err)
		return nil, errors.MapDatabaseError(err)
	}
	if row == nil {
		return nil, errors.NewNotFoundError(fmt.Sprintf("Role '%s' does not exist", name))
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto CreateRoleDTO) (*Role, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	if err := s.ensureNameFree(ctx, dto.Name, ""); err != nil {
		return nil, err
	}

	row := ToDataModel(NewRole(dto.Name, dto.Description))
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, s.storeError("create", dto.Name, err)
	}

	created := FromDataModel(row)
	s.logger.Info("role created", "id", created.ID, "name", created.Name)
	s.publish(ctx, events.NewRoleEvent(events.EventTypeRoleCreated, created.ID, created.Name, 0))
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, dto UpdateRoleDTO) (*Role, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	r, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != r.Name {
		if err := s.ensureNameFree(ctx, dto.Name, r.ID); err != nil {
			return nil, err
		}
	}
	r.Update(dto.Name, dto.Description)

	row := ToDataModel(r)
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, s.storeError("update", dto.Name, err)
	}

	updated := FromDataModel(row)
	s.logger.Info("role updated", "id", updated.ID, "name", updated.Name)
	s.publish(ctx, events.NewRoleEvent(events.EventTypeRoleUpdated, updated.ID, updated.Name, 0))
	return updated, nil
}

// Delete removes the role's permission assignments first and then the role.
func (s *Service) Delete(ctx context.Context, id string) (*DeleteResult, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	removed, err := s.cleaner.DeleteByRoleID(ctx, r.ID)
	if err != nil {
		s.logger.Error("failed to remove role associations", "id", r.ID, "error", err)
		return nil, errors.MapDatabaseError(err)
	}

	deleted, err := s.repo.Delete(ctx, r.ID)
	if err != nil {
		s.logger.Error("failed to delete role", "id", r.ID, "error", err)
		return nil, errors.MapDatabaseError(err)
	}
	if deleted == 0 {
		return nil, errors.NewNotFoundError("Role not found")
	}

	s.logger.Info("role deleted", "id", r.ID, "name", r.Name, "associations_removed", removed)
	s.publish(ctx, events.NewRoleEvent(events.EventTypeRoleDeleted, r.ID, r.Name, removed))
	return &DeleteResult{ID: r.ID, Name: r.Name, AssociationsRemoved: removed}, nil
}

// ensureNameFree fails with a conflict when another role already uses name.
func (s *Service) ensureNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.repo.GetByName(ctx, name)
	if err != nil {
		s.logger.Error("failed to check role name", "name", name, "error", err)
		return errors.MapDatabaseError(err)
	}
	if existing != nil && existing.ID != selfID {
		return duplicateError(name)
	}
	return nil
}

func (s *Service) storeError(op, name string, err error) error {
	mapped := errors.MapDatabaseError(err)
	if mapped.Is(errors.ErrUniqueViolation) {
		s.logger.Warn("role name taken concurrently", "op", op, "name", name)
		return duplicateError(name).WithCause(err)
	}
	s.logger.Error("failed to store role", "op", op, "name", name, "error", err)
	return mapped
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

func duplicateError(name string) *errors.AppError {
	return errors.NewConflictError(fmt.Sprintf("Role '%s' already exists", name))
}
