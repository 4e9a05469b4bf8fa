package rest_test

import (
	"context"
	"net/http"
	"strings"

	"github.com/frahmantamala/rbac-admin/internal/command"
	"github.com/frahmantamala/rbac-admin/internal/transport"
	"github.com/frahmantamala/rbac-admin/internal/transport/rest"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const apiPrefix = "/api/v1"

var _ = Describe("OpenAPI document", func() {
	var doc *openapi3.T

	BeforeEach(func() {
		var err error
		loader := openapi3.NewLoader()
		doc, err = loader.LoadFromFile("../../../api/openapi.yml")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should be a valid OpenAPI 3 document", func() {
		Expect(doc.Validate(context.Background())).To(Succeed())
	})

	It("should describe every mounted API route", func() {
		db := newTestDB()
		defer func() {
			sqlDB, _ := db.DB()
			sqlDB.Close()
		}()

		deps := newDependencies(db, nil, stubPinger{})
		deps.CommandHandler = command.NewHandler(transport.NewBaseHandler(deps.Base.Logger), nil)
		router := chi.NewRouter()
		rest.RegisterAllRoutes(router, deps)

		var undocumented []string
		err := chi.Walk(router, func(method, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			if !strings.HasPrefix(route, apiPrefix) {
				return nil
			}
			path := strings.TrimPrefix(route, apiPrefix)
			if len(path) > 1 {
				path = strings.TrimSuffix(path, "/")
			}

			item := doc.Paths.Value(path)
			if item == nil || item.GetOperation(method) == nil {
				undocumented = append(undocumented, method+" "+path)
			}
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(undocumented).To(BeEmpty())
	})
})
