package role_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	associationPostgres "github.com/frahmantamala/rbac-admin/internal/association/postgres"
	"github.com/frahmantamala/rbac-admin/internal/role"
	"github.com/frahmantamala/rbac-admin/internal/role/postgres"
	"github.com/frahmantamala/rbac-admin/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("Role Handler", func() {
	var (
		db       *gorm.DB
		router   chi.Router
		readOnly bool
	)

	denyWrites := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if readOnly {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	send := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		readOnly = false
		db = openTestDB()
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service := role.NewService(postgres.NewRoleRepository(db), associationPostgres.NewAssociationRepository(db), nil, lg)
		handler := role.NewHandler(transport.NewBaseHandler(lg), service)

		router = chi.NewRouter()
		router.Route("/roles", func(r chi.Router) {
			handler.Routes(r, denyWrites)
		})
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.Close()
	})

	It("should run a create, update, get and delete round", func() {
		w := send(http.MethodPost, "/roles/", `{"name":"Support Agent","description":"Helps customers"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created role.RoleResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &created)).To(Succeed())
		Expect(created.Name).To(Equal("Support Agent"))

		w = send(http.MethodPut, "/roles/"+created.ID, `{"name":"Support"}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		w = send(http.MethodGet, "/roles/"+created.ID, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var fetched role.RoleResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &fetched)).To(Succeed())
		Expect(fetched.Name).To(Equal("Support"))
		Expect(fetched.Description).To(BeNil())

		w = send(http.MethodDelete, "/roles/"+created.ID, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"associations_removed":0`))
	})

	It("should return 409 with the error payload for a duplicate", func() {
		Expect(send(http.MethodPost, "/roles/", `{"name":"Admin"}`).Code).To(Equal(http.StatusCreated))

		w := send(http.MethodPost, "/roles/", `{"name":"Admin"}`)
		Expect(w.Code).To(Equal(http.StatusConflict))

		var payload map[string]interface{}
		Expect(json.Unmarshal(w.Body.Bytes(), &payload)).To(Succeed())
		Expect(payload["error"]).To(Equal("ALREADY_EXISTS"))
		Expect(payload["message"]).To(Equal("Role 'Admin' already exists"))
		Expect(payload["statusCode"]).To(BeNumerically("==", 409))
	})

	It("should guard mutations but keep reads open", func() {
		readOnly = true

		Expect(send(http.MethodPost, "/roles/", `{"name":"Admin"}`).Code).To(Equal(http.StatusForbidden))

		w := send(http.MethodGet, "/roles/", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var list role.RolesResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &list)).To(Succeed())
		Expect(list.Roles).To(BeEmpty())
		Expect(list.Total).To(BeZero())
	})
})
