package command_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/association"
	associationPostgres "github.com/frahmantamala/rbac-admin/internal/association/postgres"
	"github.com/frahmantamala/rbac-admin/internal/command"
	commandPostgres "github.com/frahmantamala/rbac-admin/internal/command/postgres"
	permissionDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/permission"
	roleDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/role"
	rolePermissionDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/rolepermission"
	"github.com/frahmantamala/rbac-admin/internal/permission"
	permissionPostgres "github.com/frahmantamala/rbac-admin/internal/permission/postgres"
	"github.com/frahmantamala/rbac-admin/internal/role"
	rolePostgres "github.com/frahmantamala/rbac-admin/internal/role/postgres"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type countingRecorder struct {
	outcomes []string
}

func (r *countingRecorder) CommandProcessed(commandType, outcome string) {
	r.outcomes = append(r.outcomes, commandType+":"+outcome)
}

type failingSnapshots struct{}

func (failingSnapshots) Snapshot(ctx context.Context) (*command.Snapshot, error) {
	return nil, errors.New("connection refused")
}

func strPtr(s string) *string { return &s }

var _ = Describe("Processor", func() {
	var (
		db           *gorm.DB
		generator    *fakeGenerator
		recorder     *countingRecorder
		processor    *command.Processor
		permissions  *permission.Service
		roles        *role.Service
		associations *association.Service
		lg           *slog.Logger
		ctx          context.Context
	)

	reply := func(commandType string, params map[string]string, conf float64) string {
		pairs := make([]string, 0, len(params))
		for k, v := range params {
			pairs = append(pairs, fmt.Sprintf("%q:%q", k, v))
		}
		return fmt.Sprintf(`{"type":%q,"parameters":{%s},"confidence":%v}`, commandType, strings.Join(pairs, ","), conf)
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
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())

		lg = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		associationRepo := associationPostgres.NewAssociationRepository(db)
		permissions = permission.NewService(permissionPostgres.NewPermissionRepository(db), associationRepo, nil, lg)
		roles = role.NewService(rolePostgres.NewRoleRepository(db), associationRepo, nil, lg)
		associations = association.NewService(associationRepo, roles, permissions, nil, lg)

		generator = &fakeGenerator{}
		recorder = &countingRecorder{}
		processor = command.NewProcessor(
			command.NewLLMInterpreter(generator, lg),
			commandPostgres.NewSnapshotRepository(sqlx.NewDb(sqlDB, "sqlite3")),
			command.NewExecutor(permissions, roles, associations, lg),
			recorder,
			lg,
		)
		ctx = context.Background()

		admin, err := roles.Create(ctx, role.CreateRoleDTO{Name: "Admin"})
		Expect(err).NotTo(HaveOccurred())
		readUsers, err := permissions.Create(ctx, permission.CreatePermissionDTO{Name: "read_users"})
		Expect(err).NotTo(HaveOccurred())
		_, err = permissions.Create(ctx, permission.CreatePermissionDTO{Name: "write_users", Description: strPtr("Edit users")})
		Expect(err).NotTo(HaveOccurred())
		_, err = associations.Create(ctx, association.AssociationDTO{RoleID: admin.ID, PermissionID: readUsers.ID})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.Close()
	})

	Describe("Interpret", func() {
		It("should validate against the stored inventory without executing", func() {
			generator.reply = reply("create_permission", map[string]string{"name": "read_users"}, 0.95)

			resp, err := processor.Interpret(ctx, "add read_users")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Success).To(BeTrue())
			Expect(resp.Actionable).To(BeTrue())
			Expect(resp.Validation.Valid).To(BeFalse())
			Expect(resp.Validation.Errors).To(ConsistOf("Permission 'read_users' already exists"))
			Expect(generator.lastPrompt).To(ContainSubstring("- Admin has read_users"))
		})

		It("should offer suggestions for a low confidence reading", func() {
			generator.reply = reply("delete_role", map[string]string{"name": "Admin"}, 0.4)

			resp, err := processor.Interpret(ctx, "maybe drop admin?")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Actionable).To(BeFalse())
			Expect(resp.Suggestions).To(Equal(command.Suggestions))
		})

		It("should answer an unparseable reply with suggestions", func() {
			generator.reply = "no idea"

			resp, err := processor.Interpret(ctx, "make me a sandwich")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Success).To(BeFalse())
			Expect(resp.Command).To(BeNil())
			Expect(resp.Suggestions).NotTo(BeEmpty())
			Expect(recorder.outcomes).To(ContainElement("none:not_understood"))
		})

		It("should reject empty and overlong text before calling the generator", func() {
			_, err := processor.Interpret(ctx, "   ")
			Expect(err).To(HaveOccurred())

			_, err = processor.Interpret(ctx, strings.Repeat("a", 1001))
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(generator.calls).To(BeZero())
		})

		It("should surface generator outages as errors", func() {
			generator.err = internal.ErrServiceUnavailable

			_, err := processor.Interpret(ctx, "create a role")
			Expect(err).To(MatchError(internal.ErrServiceUnavailable))
			Expect(recorder.outcomes).To(ContainElement("none:interpreter_error"))
		})
	})

	Describe("Run", func() {
		It("should create a permission", func() {
			generator.reply = reply("create_permission", map[string]string{"name": "export_reports", "description": "Export"}, 0.9)

			res, err := processor.Run(ctx, "create export_reports")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeTrue())
			Expect(res.StatusCode).To(Equal(http.StatusOK))
			Expect(res.Message).To(Equal("Permission 'export_reports' created successfully"))

			p, err := permissions.GetByName(ctx, "export_reports")
			Expect(err).NotTo(HaveOccurred())
			Expect(*p.Description).To(Equal("Export"))
			Expect(recorder.outcomes).To(ContainElement("create_permission:executed"))
		})

		It("should create a role", func() {
			generator.reply = reply("create_role", map[string]string{"name": "Support Agent"}, 0.9)

			res, err := processor.Run(ctx, "new support agent role")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeTrue())
			Expect(res.Message).To(Equal("Role 'Support Agent' created successfully"))
		})

		It("should assign and then remove a permission", func() {
			generator.reply = reply("assign_permission", map[string]string{"role_name": "Admin", "permission_name": "write_users"}, 0.9)
			res, err := processor.Run(ctx, "give admin write_users")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeTrue())
			Expect(res.Message).To(Equal("Permission 'write_users' assigned to role 'Admin'"))

			generator.reply = reply("remove_permission", map[string]string{"role_name": "Admin", "permission_name": "write_users"}, 0.9)
			res, err = processor.Run(ctx, "take write_users from admin")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeTrue())
			Expect(res.Message).To(Equal("Permission 'write_users' removed from role 'Admin'"))
		})

		It("should delete a permission and its assignments", func() {
			generator.reply = reply("delete_permission", map[string]string{"name": "read_users"}, 0.9)

			res, err := processor.Run(ctx, "delete read_users")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeTrue())
			Expect(res.Message).To(Equal("Permission 'read_users' deleted (1 role assignments removed)"))

			var count int64
			Expect(db.Model(&rolePermissionDatamodel.RolePermission{}).Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())
		})

		It("should delete a role", func() {
			generator.reply = reply("delete_role", map[string]string{"name": "Admin"}, 0.9)

			res, err := processor.Run(ctx, "delete admin")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeTrue())
			Expect(res.Message).To(Equal("Role 'Admin' deleted (1 permission assignments removed)"))
		})

		It("should refuse an assignment that already exists with 409", func() {
			generator.reply = reply("assign_permission", map[string]string{"role_name": "Admin", "permission_name": "read_users"}, 0.9)

			res, err := processor.Run(ctx, "give admin read_users")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeFalse())
			Expect(res.StatusCode).To(Equal(http.StatusConflict))
			Expect(res.Errors).To(ConsistOf("Role 'Admin' already has permission 'read_users'"))
			Expect(recorder.outcomes).To(ContainElement("assign_permission:invalid"))
		})

		It("should refuse commands on missing names with 404", func() {
			generator.reply = reply("delete_role", map[string]string{"name": "Ghost"}, 0.9)

			res, err := processor.Run(ctx, "delete ghost")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.StatusCode).To(Equal(http.StatusNotFound))
			Expect(res.Error).To(Equal("Role 'Ghost' does not exist"))
		})

		It("should not execute a low confidence command", func() {
			generator.reply = reply("delete_role", map[string]string{"name": "Admin"}, 0.5)

			res, err := processor.Run(ctx, "delete admin perhaps")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeFalse())
			Expect(res.StatusCode).To(Equal(http.StatusBadRequest))

			_, err = roles.GetByName(ctx, "Admin")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should report an unparseable reply as 422", func() {
			generator.reply = "???"

			res, err := processor.Run(ctx, "gibberish")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.StatusCode).To(Equal(http.StatusUnprocessableEntity))
		})
	})

	Describe("Execute", func() {
		It("should report service-level rejections as unsuccessful results", func() {
			interp := &command.Interpretation{Command: command.CreatePermission{Name: "bad name!"}, Confidence: 1}

			res, err := processor.Execute(ctx, interp)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeFalse())
			Expect(res.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(res.Errors).NotTo(BeEmpty())
			Expect(res.Command).To(Equal(interp))
		})

		It("should map a snapshot failure to a database error", func() {
			broken := command.NewProcessor(
				command.NewLLMInterpreter(generator, lg),
				failingSnapshots{},
				command.NewExecutor(permissions, roles, associations, lg),
				nil,
				lg,
			)

			_, err := broken.Execute(ctx, &command.Interpretation{Command: command.DeleteRole{Name: "Admin"}, Confidence: 1})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusInternalServerError))
		})
	})
})
