package command

import "context"

// Pair is one role to permission assignment, by name.
type Pair struct {
	RoleName       string `db:"role_name" json:"role_name"`
	PermissionName string `db:"permission_name" json:"permission_name"`
}

// Snapshot is the inventory the interpreter and validator reason about.
type Snapshot struct {
	Permissions  []string `json:"permissions"`
	Roles        []string `json:"roles"`
	Associations []Pair   `json:"associations"`

	permissionSet map[string]struct{}
	roleSet       map[string]struct{}
	pairSet       map[Pair]struct{}
}

// SnapshotReader loads the current inventory.
type SnapshotReader interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// NewSnapshot indexes the inventory for name lookups.
func NewSnapshot(permissions, roles []string, associations []Pair) *Snapshot {
	s := &Snapshot{
		Permissions:   permissions,
		Roles:         roles,
		Associations:  associations,
		permissionSet: make(map[string]struct{}, len(permissions)),
		roleSet:       make(map[string]struct{}, len(roles)),
		pairSet:       make(map[Pair]struct{}, len(associations)),
	}
	for _, p := range permissions {
		s.permissionSet[p] = struct{}{}
	}
	for _, r := range roles {
		s.roleSet[r] = struct{}{}
	}
	for _, a := range associations {
		s.pairSet[a] = struct{}{}
	}
	return s
}

func (s *Snapshot) HasPermission(name string) bool {
	_, ok := s.permissionSet[name]
	return ok
}

func (s *Snapshot) HasRole(name string) bool {
	_, ok := s.roleSet[name]
	return ok
}

func (s *Snapshot) HasAssociation(roleName, permissionName string) bool {
	_, ok := s.pairSet[Pair{RoleName: roleName, PermissionName: permissionName}]
	return ok
}

// PermissionsOf lists the permissions assigned to roleName.
func (s *Snapshot) PermissionsOf(roleName string) []string {
	var out []string
	for _, a := range s.Associations {
		if a.RoleName == roleName {
			out = append(out, a.PermissionName)
		}
	}
	return out
}
