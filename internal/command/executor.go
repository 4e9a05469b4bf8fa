package command

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	errors "github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/association"
	"github.com/frahmantamala/rbac-admin/internal/permission"
	"github.com/frahmantamala/rbac-admin/internal/role"
)

type PermissionService interface {
	GetByName(ctx context.Context, name string) (*permission.Permission, error)
	Create(ctx context.Context, dto permission.CreatePermissionDTO) (*permission.Permission, error)
	Delete(ctx context.Context, id string) (*permission.DeleteResult, error)
}

type RoleService interface {
	GetByName(ctx context.Context, name string) (*role.Role, error)
	Create(ctx context.Context, dto role.CreateRoleDTO) (*role.Role, error)
	Delete(ctx context.Context, id string) (*role.DeleteResult, error)
}

type AssociationService interface {
	Create(ctx context.Context, dto association.AssociationDTO) (*association.Association, error)
	Delete(ctx context.Context, dto association.AssociationDTO) error
}

// Result reports the outcome of running a command.
type Result struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message"`
	Data        interface{}     `json:"data,omitempty"`
	Error       string          `json:"error,omitempty"`
	Errors      []string        `json:"errors,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
	Command     *Interpretation `json:"command,omitempty"`
	StatusCode  int             `json:"-"`
}

// Executor applies commands through the same services the REST handlers use.
type Executor struct {
	permissions  PermissionService
	roles        RoleService
	associations AssociationService
	logger       *slog.Logger
}

// NewExecutor creates an executor over the CRUD services.
func NewExecutor(permissions PermissionService, roles RoleService, associations AssociationService, logger *slog.Logger) *Executor {
	return &Executor{
		permissions:  permissions,
		roles:        roles,
		associations: associations,
		logger:       logger,
	}
}

// Execute runs cmd. Every branch looks its targets up again before mutating, since state
// may have changed after validation. Rejections come back as an unsuccessful Result; only
// unexpected failures are returned as errors.
func (e *Executor) Execute(ctx context.Context, cmd Command) (*Result, error) {
	var (
		res *Result
		err error
	)

	switch c := cmd.(type) {
	case CreatePermission:
		res, err = e.createPermission(ctx, c)
	case CreateRole:
		res, err = e.createRole(ctx, c)
	case AssignPermission:
		res, err = e.assignPermission(ctx, c)
	case RemovePermission:
		res, err = e.removePermission(ctx, c)
	case DeletePermission:
		res, err = e.deletePermission(ctx, c)
	case DeleteRole:
		res, err = e.deleteRole(ctx, c)
	case Unknown:
		return rejected("Command was not recognized", "unknown command type", http.StatusBadRequest), nil
	default:
		return nil, fmt.Errorf("unsupported command %T", cmd)
	}

	if err != nil {
		return nil, err
	}
	e.logger.Info("command executed", "type", cmd.Type(), "success", res.Success, "message", res.Message)
	return res, nil
}

func (e *Executor) createPermission(ctx context.Context, c CreatePermission) (*Result, error) {
	p, err := e.permissions.Create(ctx, permission.CreatePermissionDTO{
		Name:        c.Name,
		Description: optional(c.Description),
	})
	if err != nil {
		return failure("Failed to create permission", err)
	}
	return succeeded(fmt.Sprintf("Permission '%s' created successfully", p.Name), p.ToResponse()), nil
}

func (e *Executor) createRole(ctx context.Context, c CreateRole) (*Result, error) {
	r, err := e.roles.Create(ctx, role.CreateRoleDTO{
		Name:        c.Name,
		Description: optional(c.Description),
	})
	if err != nil {
		return failure("Failed to create role", err)
	}
	return succeeded(fmt.Sprintf("Role '%s' created successfully", r.Name), r.ToResponse()), nil
}

func (e *Executor) assignPermission(ctx context.Context, c AssignPermission) (*Result, error) {
	r, p, res, err := e.lookupPair(ctx, c.RoleName, c.PermissionName, "Failed to assign permission")
	if res != nil || err != nil {
		return res, err
	}

	a, err := e.associations.Create(ctx, association.AssociationDTO{RoleID: r.ID, PermissionID: p.ID})
	if err != nil {
		return failure("Failed to assign permission", err)
	}
	return succeeded(fmt.Sprintf("Permission '%s' assigned to role '%s'", p.Name, r.Name), a), nil
}

func (e *Executor) removePermission(ctx context.Context, c RemovePermission) (*Result, error) {
	r, p, res, err := e.lookupPair(ctx, c.RoleName, c.PermissionName, "Failed to remove permission")
	if res != nil || err != nil {
		return res, err
	}

	err = e.associations.Delete(ctx, association.AssociationDTO{RoleID: r.ID, PermissionID: p.ID})
	if err != nil {
		if errors.IsNotFound(err) {
			msg := fmt.Sprintf("Role '%s' does not have permission '%s'", r.Name, p.Name)
			return rejected("Failed to remove permission", msg, http.StatusNotFound), nil
		}
		return failure("Failed to remove permission", err)
	}
	return succeeded(fmt.Sprintf("Permission '%s' removed from role '%s'", p.Name, r.Name), map[string]string{
		"role_id":       r.ID,
		"permission_id": p.ID,
	}), nil
}

func (e *Executor) deletePermission(ctx context.Context, c DeletePermission) (*Result, error) {
	p, err := e.permissions.GetByName(ctx, c.Name)
	if err != nil {
		return failure("Failed to delete permission", err)
	}

	deleted, err := e.permissions.Delete(ctx, p.ID)
	if err != nil {
		return failure("Failed to delete permission", err)
	}
	msg := fmt.Sprintf("Permission '%s' deleted (%d role assignments removed)", deleted.Name, deleted.AssociationsRemoved)
	return succeeded(msg, deleted), nil
}

func (e *Executor) deleteRole(ctx context.Context, c DeleteRole) (*Result, error) {
	r, err := e.roles.GetByName(ctx, c.Name)
	if err != nil {
		return failure("Failed to delete role", err)
	}

	deleted, err := e.roles.Delete(ctx, r.ID)
	if err != nil {
		return failure("Failed to delete role", err)
	}
	msg := fmt.Sprintf("Role '%s' deleted (%d permission assignments removed)", deleted.Name, deleted.AssociationsRemoved)
	return succeeded(msg, deleted), nil
}

// lookupPair resolves both names. A non-nil Result means the lookup rejected the command.
func (e *Executor) lookupPair(ctx context.Context, roleName, permissionName, action string) (*role.Role, *permission.Permission, *Result, error) {
	r, err := e.roles.GetByName(ctx, roleName)
	if err != nil {
		res, err := failure(action, err)
		return nil, nil, res, err
	}
	p, err := e.permissions.GetByName(ctx, permissionName)
	if err != nil {
		res, err := failure(action, err)
		return nil, nil, res, err
	}
	return r, p, nil, nil
}

func succeeded(message string, data interface{}) *Result {
	return &Result{Success: true, Message: message, Data: data, StatusCode: http.StatusOK}
}

func rejected(message, reason string, status int) *Result {
	return &Result{Success: false, Message: message, Error: reason, StatusCode: status}
}

// failure turns a client-side AppError into a rejected Result and passes anything else on.
func failure(message string, err error) (*Result, error) {
	appErr, ok := errors.IsAppError(err)
	if !ok || appErr.StatusCode >= http.StatusInternalServerError {
		return nil, err
	}
	res := rejected(message, appErr.GetDetailedMessage(), appErr.StatusCode)
	if details, ok := appErr.Details.(errors.ValidationErrors); ok {
		for _, d := range details.Errors {
			res.Errors = append(res.Errors, d.Message)
		}
	}
	return res, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
