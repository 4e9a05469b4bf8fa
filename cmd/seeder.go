package cmd

import (
	"context"
	"fmt"
	"log"

	errors "github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/association"
	"github.com/frahmantamala/rbac-admin/internal/permission"
	"github.com/frahmantamala/rbac-admin/internal/role"
	"github.com/spf13/cobra"
)

var seedPermissions = []struct {
	Name string
	Desc string
}{
	{"read_users", "View user accounts"},
	{"write_users", "Create and edit user accounts"},
	{"delete_users", "Remove user accounts"},
	{"read_reports", "View reports"},
	{"export_reports", "Export reports"},
	{"manage_billing", "Change billing settings"},
}

var seedRoles = []struct {
	Name        string
	Desc        string
	Permissions []string
}{
	{"Admin", "Full access", []string{"read_users", "write_users", "delete_users", "read_reports", "export_reports", "manage_billing"}},
	{"Support Agent", "Helps users with their accounts", []string{"read_users", "write_users"}},
	{"Analyst", "Read-only reporting access", []string{"read_reports", "export_reports"}},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a baseline set of permissions, roles and assignments. Existing rows are kept.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		a, err := newApp(cfg, true)
		if err != nil {
			log.Fatalf("failed to init app: %v", err)
		}
		defer a.Close()

		ctx := context.Background()

		if clearData {
			// children first; the foreign keys do not cascade
			for _, table := range []string{"role_permissions", "roles", "permissions"} {
				if err := a.Gorm.WithContext(ctx).Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing permissions, roles and assignments")
		}

		permissionIDs := make(map[string]string, len(seedPermissions))
		for _, p := range seedPermissions {
			desc := p.Desc
			created, err := a.Permissions.Create(ctx, permission.CreatePermissionDTO{Name: p.Name, Description: &desc})
			if err != nil {
				if !errors.IsConflict(err) {
					log.Fatalf("failed to insert permission %s: %v", p.Name, err)
				}
				if created, err = a.Permissions.GetByName(ctx, p.Name); err != nil {
					log.Fatalf("permission not found after conflict %s: %v", p.Name, err)
				}
			} else {
				fmt.Println("Seeded permission:", p.Name)
			}
			permissionIDs[p.Name] = created.ID
		}

		for _, r := range seedRoles {
			desc := r.Desc
			created, err := a.Roles.Create(ctx, role.CreateRoleDTO{Name: r.Name, Description: &desc})
			if err != nil {
				if !errors.IsConflict(err) {
					log.Fatalf("failed to insert role %s: %v", r.Name, err)
				}
				if created, err = a.Roles.GetByName(ctx, r.Name); err != nil {
					log.Fatalf("role not found after conflict %s: %v", r.Name, err)
				}
			} else {
				fmt.Println("Seeded role:", r.Name)
			}

			granted := 0
			for _, permName := range r.Permissions {
				_, err := a.Associations.Create(ctx, association.AssociationDTO{RoleID: created.ID, PermissionID: permissionIDs[permName]})
				if err != nil && !errors.IsConflict(err) {
					log.Fatalf("failed to grant %s to %s: %v", permName, r.Name, err)
				}
				if err == nil {
					granted++
				}
			}
			fmt.Printf("Granted %d new permission(s) to %s\n", granted, r.Name)
		}

		fmt.Println("Seed complete")
	},
}
