package command_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/frahmantamala/rbac-admin/internal/association"
	associationPostgres "github.com/frahmantamala/rbac-admin/internal/association/postgres"
	"github.com/frahmantamala/rbac-admin/internal/command"
	permissionDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/permission"
	roleDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/role"
	rolePermissionDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/rolepermission"
	"github.com/frahmantamala/rbac-admin/internal/permission"
	permissionPostgres "github.com/frahmantamala/rbac-admin/internal/permission/postgres"
	"github.com/frahmantamala/rbac-admin/internal/role"
	rolePostgres "github.com/frahmantamala/rbac-admin/internal/role/postgres"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The executor is called without validation here, so every case runs against state that
// no longer matches what a caller might have checked earlier.
var _ = Describe("Executor", func() {
	var (
		db           *gorm.DB
		executor     *command.Executor
		permissions  *permission.Service
		roles        *role.Service
		associations *association.Service
		ctx          context.Context
	)

	count := func(model interface{}) int64 {
		var n int64
		Expect(db.Model(model).Count(&n).Error).NotTo(HaveOccurred())
		return n
	}

	counts := func() []int64 {
		return []int64{
			count(&permissionDatamodel.Permission{}),
			count(&roleDatamodel.Role{}),
			count(&rolePermissionDatamodel.RolePermission{}),
		}
	}

	BeforeEach(func() {
		var err error
		dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
		db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(
			&permissionDatamodel.Permission{},
			&roleDatamodel.Role{},
			&rolePermissionDatamodel.RolePermission{},
		)).To(Succeed())

		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		associationRepo := associationPostgres.NewAssociationRepository(db)
		permissions = permission.NewService(permissionPostgres.NewPermissionRepository(db), associationRepo, nil, lg)
		roles = role.NewService(rolePostgres.NewRoleRepository(db), associationRepo, nil, lg)
		associations = association.NewService(associationRepo, roles, permissions, nil, lg)
		executor = command.NewExecutor(permissions, roles, associations, lg)
		ctx = context.Background()

		admin, err := roles.Create(ctx, role.CreateRoleDTO{Name: "Admin"})
		Expect(err).NotTo(HaveOccurred())
		for _, name := range []string{"read_users", "write_users", "read_reports"} {
			p, err := permissions.Create(ctx, permission.CreatePermissionDTO{Name: name})
			Expect(err).NotTo(HaveOccurred())
			if name != "write_users" {
				_, err = associations.Create(ctx, association.AssociationDTO{RoleID: admin.ID, PermissionID: p.ID})
				Expect(err).NotTo(HaveOccurred())
			}
		}
		Expect(counts()).To(Equal([]int64{3, 1, 2}))
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.Close()
	})

	Context("when the target already exists", func() {
		It("should refuse to assign a pair twice", func() {
			res, err := executor.Execute(ctx, command.AssignPermission{RoleName: "Admin", PermissionName: "read_users"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeFalse())
			Expect(res.StatusCode).To(Equal(http.StatusConflict))
			Expect(res.Error).To(Equal("Role 'Admin' already has permission 'read_users'"))
			Expect(counts()).To(Equal([]int64{3, 1, 2}))
		})

		It("should refuse a permission name that is taken", func() {
			res, err := executor.Execute(ctx, command.CreatePermission{Name: "read_users"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeFalse())
			Expect(res.StatusCode).To(Equal(http.StatusConflict))
			Expect(res.Error).To(Equal("Permission 'read_users' already exists"))
			Expect(counts()).To(Equal([]int64{3, 1, 2}))
		})

		It("should refuse a role name that is taken", func() {
			res, err := executor.Execute(ctx, command.CreateRole{Name: "Admin"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeFalse())
			Expect(res.StatusCode).To(Equal(http.StatusConflict))
			Expect(counts()).To(Equal([]int64{3, 1, 2}))
		})
	})

	Context("when the target is missing", func() {
		It("should report a pair that was never assigned", func() {
			res, err := executor.Execute(ctx, command.RemovePermission{RoleName: "Admin", PermissionName: "write_users"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeFalse())
			Expect(res.StatusCode).To(Equal(http.StatusNotFound))
			Expect(res.Error).To(Equal("Role 'Admin' does not have permission 'write_users'"))
			Expect(counts()).To(Equal([]int64{3, 1, 2}))
		})

		It("should not touch grants once the role is gone", func() {
			editor, err := roles.Create(ctx, role.CreateRoleDTO{Name: "Editor"})
			Expect(err).NotTo(HaveOccurred())
			_, err = roles.Delete(ctx, editor.ID)
			Expect(err).NotTo(HaveOccurred())

			for _, cmd := range []command.Command{
				command.AssignPermission{RoleName: "Editor", PermissionName: "write_users"},
				command.RemovePermission{RoleName: "Editor", PermissionName: "read_users"},
			} {
				res, err := executor.Execute(ctx, cmd)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Success).To(BeFalse())
				Expect(res.StatusCode).To(Equal(http.StatusNotFound))
				Expect(res.Error).To(Equal("Role 'Editor' does not exist"))
			}
			Expect(counts()).To(Equal([]int64{3, 1, 2}))
		})

		It("should not assign a permission that is gone", func() {
			res, err := executor.Execute(ctx, command.AssignPermission{RoleName: "Admin", PermissionName: "export_users"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.StatusCode).To(Equal(http.StatusNotFound))
			Expect(res.Error).To(Equal("Permission 'export_users' does not exist"))
			Expect(counts()).To(Equal([]int64{3, 1, 2}))
		})

		It("should report deleting a permission or role that is gone", func() {
			res, err := executor.Execute(ctx, command.DeletePermission{Name: "export_users"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeFalse())
			Expect(res.StatusCode).To(Equal(http.StatusNotFound))

			res, err = executor.Execute(ctx, command.DeleteRole{Name: "Editor"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeFalse())
			Expect(res.StatusCode).To(Equal(http.StatusNotFound))
			Expect(counts()).To(Equal([]int64{3, 1, 2}))
		})
	})

	It("should remove every grant when deleting a role", func() {
		res, err := executor.Execute(ctx, command.DeleteRole{Name: "Admin"})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Success).To(BeTrue())
		Expect(res.Message).To(Equal("Role 'Admin' deleted (2 permission assignments removed)"))
		Expect(counts()).To(Equal([]int64{3, 0, 0}))
	})

	It("should reject an unknown command without mutating", func() {
		res, err := executor.Execute(ctx, command.Unknown{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(counts()).To(Equal([]int64{3, 1, 2}))
	})
})
