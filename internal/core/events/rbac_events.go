package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePermissionCreated = "permission.created"
	EventTypePermissionUpdated = "permission.updated"
	EventTypePermissionDeleted = "permission.deleted"

	EventTypeRoleCreated = "role.created"
	EventTypeRoleUpdated = "role.updated"
	EventTypeRoleDeleted = "role.deleted"

	EventTypeAssociationCreated = "association.created"
	EventTypeAssociationDeleted = "association.deleted"
)

// AllRBACEventTypes lists every mutation event the admin services publish.
var AllRBACEventTypes = []string{
	EventTypePermissionCreated,
	EventTypePermissionUpdated,
	EventTypePermissionDeleted,
	EventTypeRoleCreated,
	EventTypeRoleUpdated,
	EventTypeRoleDeleted,
	EventTypeAssociationCreated,
	EventTypeAssociationDeleted,
}

type PermissionEvent struct {
	BaseEvent
	PermissionID        string `json:"permission_id"`
	Name                string `json:"name"`
	AssociationsRemoved int64  `json:"associations_removed,omitempty"`
}

func NewPermissionEvent(eventType, permissionID, name string, associationsRemoved int64) *PermissionEvent {
	return &PermissionEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"permission_id":        permissionID,
				"name":                 name,
				"associations_removed": associationsRemoved,
			},
		},
		PermissionID:        permissionID,
		Name:                name,
		AssociationsRemoved: associationsRemoved,
	}
}

type RoleEvent struct {
	BaseEvent
	RoleID              string `json:"role_id"`
	Name                string `json:"name"`
	AssociationsRemoved int64  `json:"associations_removed,omitempty"`
}

func NewRoleEvent(eventType, roleID, name string, associationsRemoved int64) *RoleEvent {
	return &RoleEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"role_id":              roleID,
				"name":                 name,
				"associations_removed": associationsRemoved,
			},
		},
		RoleID:              roleID,
		Name:                name,
		AssociationsRemoved: associationsRemoved,
	}
}

type AssociationEvent struct {
	BaseEvent
	RoleID       string `json:"role_id"`
	PermissionID string `json:"permission_id"`
}

func NewAssociationEvent(eventType, roleID, permissionID string) *AssociationEvent {
	return &AssociationEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"role_id":       roleID,
				"permission_id": permissionID,
			},
		},
		RoleID:       roleID,
		PermissionID: permissionID,
	}
}
