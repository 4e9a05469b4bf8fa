package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Type names a command kind on the wire.
type Type string

// Command types accepted from the interpreter and API clients.
const (
	TypeCreatePermission Type = "create_permission"
	TypeCreateRole       Type = "create_role"
	TypeAssignPermission Type = "assign_permission"
	TypeRemovePermission Type = "remove_permission"
	TypeDeletePermission Type = "delete_permission"
	TypeDeleteRole       Type = "delete_role"
	TypeUnknown          Type = "unknown"
)

// ActionableConfidence is the confidence a command must exceed before it may run.
const ActionableConfidence = 0.5

const (
	paramName           = "name"
	paramDescription    = "description"
	paramRoleName       = "role_name"
	paramPermissionName = "permission_name"
)

// ErrNotUnderstood marks interpreter output that cannot be decoded into a command.
// It is distinct from an interpreted command of type unknown.
var ErrNotUnderstood = errors.New("command not understood")

// Command is one of the seven command kinds below.
type Command interface {
	Type() Type
	Parameters() map[string]string
	isCommand()
}

type CreatePermission struct {
	Name        string
	Description string
}

type CreateRole struct {
	Name        string
	Description string
}

type AssignPermission struct {
	RoleName       string
	PermissionName string
}

type RemovePermission struct {
	RoleName       string
	PermissionName string
}

type DeletePermission struct {
	Name string
}

type DeleteRole struct {
	Name string
}

type Unknown struct{}

func (CreatePermission) Type() Type { return TypeCreatePermission }
func (CreateRole) Type() Type       { return TypeCreateRole }
func (AssignPermission) Type() Type { return TypeAssignPermission }
func (RemovePermission) Type() Type { return TypeRemovePermission }
func (DeletePermission) Type() Type { return TypeDeletePermission }
func (DeleteRole) Type() Type       { return TypeDeleteRole }
func (Unknown) Type() Type          { return TypeUnknown }

func (c CreatePermission) Parameters() map[string]string {
	return withDescription(map[string]string{paramName: c.Name}, c.Description)
}

func (c CreateRole) Parameters() map[string]string {
	return withDescription(map[string]string{paramName: c.Name}, c.Description)
}

func (c AssignPermission) Parameters() map[string]string {
	return map[string]string{paramRoleName: c.RoleName, paramPermissionName: c.PermissionName}
}

func (c RemovePermission) Parameters() map[string]string {
	return map[string]string{paramRoleName: c.RoleName, paramPermissionName: c.PermissionName}
}

func (c DeletePermission) Parameters() map[string]string {
	return map[string]string{paramName: c.Name}
}

func (c DeleteRole) Parameters() map[string]string {
	return map[string]string{paramName: c.Name}
}

func (Unknown) Parameters() map[string]string { return map[string]string{} }

func (CreatePermission) isCommand() {}
func (CreateRole) isCommand()       {}
func (AssignPermission) isCommand() {}
func (RemovePermission) isCommand() {}
func (DeletePermission) isCommand() {}
func (DeleteRole) isCommand()       {}
func (Unknown) isCommand()          {}

func withDescription(params map[string]string, description string) map[string]string {
	if description != "" {
		params[paramDescription] = description
	}
	return params
}

// Interpretation is a command together with the interpreter's confidence in it.
type Interpretation struct {
	Command     Command
	Confidence  float64
	Explanation string
}

// Actionable reports whether the command may be executed.
func (i *Interpretation) Actionable() bool {
	return i != nil && i.Command != nil &&
		i.Command.Type() != TypeUnknown &&
		i.Confidence > ActionableConfidence
}

// Envelope is the JSON shape exchanged with the text-generation service and API clients.
type Envelope struct {
	Type        string                 `json:"type"`
	Parameters  map[string]interface{} `json:"parameters"`
	Confidence  *float64               `json:"confidence,omitempty"`
	Explanation string                 `json:"explanation,omitempty"`
}

// MarshalJSON writes the interpretation in Envelope form, confidence always present.
func (i Interpretation) MarshalJSON() ([]byte, error) {
	params := make(map[string]interface{})
	if i.Command != nil {
		for k, v := range i.Command.Parameters() {
			params[k] = v
		}
	}
	t := TypeUnknown
	if i.Command != nil {
		t = i.Command.Type()
	}
	confidence := i.Confidence
	return json.Marshal(Envelope{
		Type:        string(t),
		Parameters:  params,
		Confidence:  &confidence,
		Explanation: i.Explanation,
	})
}

// Decode converts an envelope into a typed interpretation. A missing confidence takes
// defaultConfidence. Unknown types, out of range confidence, non-string parameters and
// missing required parameters are reported as ErrNotUnderstood.
func (e Envelope) Decode(defaultConfidence float64) (*Interpretation, error) {
	confidence := defaultConfidence
	if e.Confidence != nil {
		confidence = *e.Confidence
	}
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v outside [0,1]", ErrNotUnderstood, confidence)
	}

	params, err := stringParameters(e.Parameters)
	if err != nil {
		return nil, err
	}

	cmd, err := build(Type(strings.TrimSpace(strings.ToLower(e.Type))), params)
	if err != nil {
		return nil, err
	}

	return &Interpretation{
		Command:     cmd,
		Confidence:  confidence,
		Explanation: e.Explanation,
	}, nil
}

func build(t Type, p parameters) (Command, error) {
	switch t {
	case TypeCreatePermission:
		name, err := p.require(paramName)
		if err != nil {
			return nil, err
		}
		return CreatePermission{Name: name, Description: p.get(paramDescription)}, nil
	case TypeCreateRole:
		name, err := p.require(paramName)
		if err != nil {
			return nil, err
		}
		return CreateRole{Name: name, Description: p.get(paramDescription)}, nil
	case TypeAssignPermission, TypeRemovePermission:
		roleName, err := p.require(paramRoleName, "roleName")
		if err != nil {
			return nil, err
		}
		permissionName, err := p.require(paramPermissionName, "permissionName")
		if err != nil {
			return nil, err
		}
		if t == TypeAssignPermission {
			return AssignPermission{RoleName: roleName, PermissionName: permissionName}, nil
		}
		return RemovePermission{RoleName: roleName, PermissionName: permissionName}, nil
	case TypeDeletePermission:
		name, err := p.require(paramName, paramPermissionName, "permissionName")
		if err != nil {
			return nil, err
		}
		return DeletePermission{Name: name}, nil
	case TypeDeleteRole:
		name, err := p.require(paramName, paramRoleName, "roleName")
		if err != nil {
			return nil, err
		}
		return DeleteRole{Name: name}, nil
	case TypeUnknown:
		return Unknown{}, nil
	}
	return nil, fmt.Errorf("%w: unsupported command type %q", ErrNotUnderstood, t)
}

type parameters map[string]string

func stringParameters(raw map[string]interface{}) (parameters, error) {
	p := make(parameters, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			p[k] = strings.TrimSpace(val)
		default:
			return nil, fmt.Errorf("%w: parameter %q is not a string", ErrNotUnderstood, k)
		}
	}
	return p, nil
}

func (p parameters) get(keys ...string) string {
	for _, k := range keys {
		if v := p[k]; v != "" {
			return v
		}
	}
	return ""
}

func (p parameters) require(keys ...string) (string, error) {
	if v := p.get(keys...); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: missing parameter %q", ErrNotUnderstood, keys[0])
}
