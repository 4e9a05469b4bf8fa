package permission_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	permissionDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/permission"
	"github.com/frahmantamala/rbac-admin/internal/permission"
	"github.com/frahmantamala/rbac-admin/internal/permission/postgres"
	"github.com/frahmantamala/rbac-admin/internal/transport"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Permission Handler Integration", func() {
	var (
		db     *gorm.DB
		router chi.Router
	)

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var reader *bytes.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewReader(raw)
		} else {
			reader = bytes.NewReader(nil)
		}
		req := httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		var err error
		dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
		db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&permissionDatamodel.Permission{})).To(Succeed())

		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service := permission.NewService(
			postgres.NewPermissionRepository(db),
			&MockCleaner{removed: map[string]int64{}},
			nil,
			lg,
		)
		handler := permission.NewHandler(transport.NewBaseHandler(lg), service)

		router = chi.NewRouter()
		router.Route("/permissions", func(r chi.Router) {
			handler.Routes(r, nil)
		})
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.Close()
	})

	createPermission := func(name string) permission.PermissionResponse {
		w := do(http.MethodPost, "/permissions/", map[string]interface{}{"name": name})
		Expect(w.Code).To(Equal(http.StatusCreated))
		var resp permission.PermissionResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		return resp
	}

	Describe("POST /permissions", func() {
		It("should create a permission", func() {
			w := do(http.MethodPost, "/permissions/", map[string]interface{}{
				"name":        "read_users",
				"description": "View users",
			})

			Expect(w.Code).To(Equal(http.StatusCreated))
			var resp permission.PermissionResponse
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.ID).NotTo(BeEmpty())
			Expect(resp.Name).To(Equal("read_users"))
			Expect(*resp.Description).To(Equal("View users"))
		})

		It("should return 409 for a duplicate name", func() {
			createPermission("read_users")

			w := do(http.MethodPost, "/permissions/", map[string]interface{}{"name": "read_users"})
			Expect(w.Code).To(Equal(http.StatusConflict))
			Expect(w.Body.String()).To(ContainSubstring("Permission 'read_users' already exists"))
		})

		It("should return 400 for an invalid name", func() {
			w := do(http.MethodPost, "/permissions/", map[string]interface{}{"name": "read users!"})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should return 400 for a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/permissions/", bytes.NewBufferString("{"))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("INVALID_BODY"))
		})
	})

	Describe("GET /permissions", func() {
		It("should list with paging metadata", func() {
			createPermission("read_users")
			createPermission("write_users")

			w := do(http.MethodGet, "/permissions/?limit=1", nil)
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp permission.PermissionsResponse
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Total).To(Equal(int64(2)))
			Expect(resp.Limit).To(Equal(1))
			Expect(resp.Permissions).To(HaveLen(1))
			Expect(resp.Permissions[0].Name).To(Equal("read_users"))
		})

		It("should return 404 for an unknown id", func() {
			w := do(http.MethodGet, "/permissions/"+uuid.NewString(), nil)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("should return 400 for a malformed id", func() {
			w := do(http.MethodGet, "/permissions/not-a-uuid", nil)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("PUT /permissions/{id}", func() {
		It("should update the name", func() {
			created := createPermission("read_users")

			w := do(http.MethodPut, "/permissions/"+created.ID, map[string]interface{}{"name": "view_users"})
			Expect(w.Code).To(Equal(http.StatusOK))

			w = do(http.MethodGet, "/permissions/"+created.ID, nil)
			Expect(w.Body.String()).To(ContainSubstring("view_users"))
		})
	})

	Describe("DELETE /permissions/{id}", func() {
		It("should delete and report removed associations", func() {
			created := createPermission("read_users")

			w := do(http.MethodDelete, "/permissions/"+created.ID, nil)
			Expect(w.Code).To(Equal(http.StatusOK))

			var result permission.DeleteResult
			Expect(json.Unmarshal(w.Body.Bytes(), &result)).To(Succeed())
			Expect(result.Name).To(Equal("read_users"))
			Expect(result.AssociationsRemoved).To(BeZero())

			w = do(http.MethodGet, "/permissions/"+created.ID, nil)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})
})
