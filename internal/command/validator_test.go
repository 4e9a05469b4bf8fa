package command_test

import (
	"github.com/frahmantamala/rbac-admin/internal/command"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Validate", func() {
	var snap *command.Snapshot

	BeforeEach(func() {
		snap = command.NewSnapshot(
			[]string{"read_users", "export_reports"},
			[]string{"Admin", "Analyst"},
			[]command.Pair{{RoleName: "Admin", PermissionName: "read_users"}},
		)
	})

	DescribeTable("valid commands",
		func(cmd command.Command) {
			v := command.Validate(cmd, snap)
			Expect(v.Valid).To(BeTrue())
			Expect(v.Errors).To(BeEmpty())
		},
		Entry("new permission", command.CreatePermission{Name: "write_users"}),
		Entry("new role", command.CreateRole{Name: "Editor"}),
		Entry("new assignment", command.AssignPermission{RoleName: "Analyst", PermissionName: "export_reports"}),
		Entry("existing assignment removal", command.RemovePermission{RoleName: "Admin", PermissionName: "read_users"}),
		Entry("existing permission deletion", command.DeletePermission{Name: "export_reports"}),
		Entry("existing role deletion", command.DeleteRole{Name: "Analyst"}),
	)

	DescribeTable("invalid commands",
		func(cmd command.Command, reasons []string) {
			v := command.Validate(cmd, snap)
			Expect(v.Valid).To(BeFalse())
			Expect(v.Errors).To(Equal(reasons))
		},
		Entry("duplicate permission", command.CreatePermission{Name: "read_users"},
			[]string{"Permission 'read_users' already exists"}),
		Entry("duplicate role", command.CreateRole{Name: "Admin"},
			[]string{"Role 'Admin' already exists"}),
		Entry("assignment with both endpoints missing", command.AssignPermission{RoleName: "Editor", PermissionName: "write_users"},
			[]string{"Role 'Editor' does not exist", "Permission 'write_users' does not exist"}),
		Entry("assignment already present", command.AssignPermission{RoleName: "Admin", PermissionName: "read_users"},
			[]string{"Role 'Admin' already has permission 'read_users'"}),
		Entry("removal of a missing permission", command.RemovePermission{RoleName: "Admin", PermissionName: "write_users"},
			[]string{"Permission 'write_users' does not exist"}),
		Entry("removal of an absent assignment", command.RemovePermission{RoleName: "Analyst", PermissionName: "read_users"},
			[]string{"Role 'Analyst' does not have permission 'read_users'"}),
		Entry("deletion of a missing permission", command.DeletePermission{Name: "write_users"},
			[]string{"Permission 'write_users' does not exist"}),
		Entry("deletion of a missing role", command.DeleteRole{Name: "admin"},
			[]string{"Role 'admin' does not exist"}),
		Entry("unknown command", command.Unknown{},
			[]string{"Command was not recognized"}),
	)
})
