package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/frahmantamala/school-core/internal/auth"
	"github.com/frahmantamala/school-core/internal/transport"
	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type noUsers struct{}

func (noUsers) GetByEmail(context.Context, string) (*auth.User, error) { return nil, auth.ErrUserNotFound }
func (noUsers) GetByID(context.Context, int64) (*auth.User, error)     { return nil, auth.ErrUserNotFound }

var _ = Describe("RegisterAllRoutes", func() {
	var router *chi.Mux

	BeforeEach(func() {
		db, mock, err := sqlmock.New()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() error {
			mock.ExpectClose()
			return db.Close()
		})

		base := transport.NewBaseHandler(quietLogger())
		tokens := auth.NewJWTTokenGenerator("router-access-secret-router-access", "router-refresh-secret-router-refresh", time.Minute, time.Hour)
		router = chi.NewRouter()
		RegisterAllRoutes(router, RouterConfig{Logger: quietLogger()}, Handlers{
			Health: NewHealthHandler(sqlx.NewDb(db, "sqlmock")),
			Auth:   auth.NewHandler(base, auth.NewService(noUsers{}, tokens, quietLogger())),
		})
	})

	It("serves ping publicly with a trace id", func() {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("X-Trace-ID")).NotTo(BeEmpty())
	})

	DescribeTable("guards project routes behind authentication",
		func(method, path string) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(rec.Body.String()).To(MatchJSON(
				`{"success":false,"error":{"code":"AUTH_FAILED","message":"Authentication required","details":{}}}`))
		},
		Entry("me", http.MethodGet, "/api/v1/me"),
		Entry("projects", http.MethodGet, "/api/v1/projects"),
		Entry("roles", http.MethodPost, "/api/v1/projects/1/roles"),
		Entry("uploads", http.MethodPost, "/api/v1/projects/1/uploads/attendance"),
		Entry("audit", http.MethodGet, "/api/v1/projects/1/audit"),
	)
})
