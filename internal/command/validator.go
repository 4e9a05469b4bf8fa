package command

import "fmt"

// Validation is the outcome of checking a command against the current inventory.
type Validation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate checks cmd against snap. Reasons are reported in a fixed order and any reason
// blocks execution.
func Validate(cmd Command, snap *Snapshot) Validation {
	reasons := []string{}

	switch c := cmd.(type) {
	case CreatePermission:
		if snap.HasPermission(c.Name) {
			reasons = append(reasons, fmt.Sprintf("Permission '%s' already exists", c.Name))
		}
	case CreateRole:
		if snap.HasRole(c.Name) {
			reasons = append(reasons, fmt.Sprintf("Role '%s' already exists", c.Name))
		}
	case AssignPermission:
		reasons = append(reasons, missingEndpoints(snap, c.RoleName, c.PermissionName)...)
		if len(reasons) == 0 && snap.HasAssociation(c.RoleName, c.PermissionName) {
			reasons = append(reasons, fmt.Sprintf("Role '%s' already has permission '%s'", c.RoleName, c.PermissionName))
		}
	case RemovePermission:
		reasons = append(reasons, missingEndpoints(snap, c.RoleName, c.PermissionName)...)
		if len(reasons) == 0 && !snap.HasAssociation(c.RoleName, c.PermissionName) {
			reasons = append(reasons, fmt.Sprintf("Role '%s' does not have permission '%s'", c.RoleName, c.PermissionName))
		}
	case DeletePermission:
		if !snap.HasPermission(c.Name) {
			reasons = append(reasons, fmt.Sprintf("Permission '%s' does not exist", c.Name))
		}
	case DeleteRole:
		if !snap.HasRole(c.Name) {
			reasons = append(reasons, fmt.Sprintf("Role '%s' does not exist", c.Name))
		}
	case Unknown:
		reasons = append(reasons, "Command was not recognized")
	default:
		reasons = append(reasons, fmt.Sprintf("Unsupported command type '%s'", cmd.Type()))
	}

	return Validation{Valid: len(reasons) == 0, Errors: reasons}
}

func missingEndpoints(snap *Snapshot, roleName, permissionName string) []string {
	var reasons []string
	if !snap.HasRole(roleName) {
		reasons = append(reasons, fmt.Sprintf("Role '%s' does not exist", roleName))
	}
	if !snap.HasPermission(permissionName) {
		reasons = append(reasons, fmt.Sprintf("Permission '%s' does not exist", permissionName))
	}
	return reasons
}
