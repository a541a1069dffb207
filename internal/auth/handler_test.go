package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/frahmantamala/school-core/internal"
	"github.com/frahmantamala/school-core/internal/transport"
	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Handler", func() {
	var (
		router  chi.Router
		service *Service
	)

	ginkgo.BeforeEach(func() {
		tokenGen := NewJWTTokenGenerator(accessSecret, refreshSecret, 15*time.Minute, 24*time.Hour)
		service = NewService(newMockUserRepository(), tokenGen, quietLogger())
		handler := NewHandler(transport.NewBaseHandler(quietLogger()), service)

		router = chi.NewRouter()
		router.Post("/auth/login", handler.Login)
		router.Post("/auth/refresh", handler.RefreshToken)
		router.Group(func(r chi.Router) {
			r.Use(handler.AuthMiddleware)
			r.Get("/me", handler.Me)
		})
	})

	do := func(method, path, body, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	ginkgo.It("logs in and reaches /me with the access token", func() {
		rec := do(http.MethodPost, "/auth/login", `{"email":"teacher@example.com","password":"correct_password"}`, "")
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))

		var tokens AuthTokens
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &tokens)).To(gomega.Succeed())

		rec = do(http.MethodGet, "/me", "", tokens.AccessToken)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(`"email":"teacher@example.com"`))
		gomega.Expect(rec.Body.String()).ToNot(gomega.ContainSubstring("password"))
	})

	ginkgo.It("answers a bad login with the AUTH_FAILED envelope", func() {
		rec := do(http.MethodPost, "/auth/login", `{"email":"teacher@example.com","password":"nope"}`, "")

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(rec.Body.String()).To(gomega.MatchJSON(
			`{"success":false,"error":{"code":"AUTH_FAILED","message":"Invalid email or password","details":{}}}`))
	})

	ginkgo.It("validates the login body", func() {
		rec := do(http.MethodPost, "/auth/login", `{"email":"not-an-email"}`, "")

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnprocessableEntity))
		var env struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &env)).To(gomega.Succeed())
		gomega.Expect(env.Error.Code).To(gomega.Equal(string(internal.ErrCodeValidation)))
	})

	ginkgo.It("rejects requests without a bearer token", func() {
		rec := do(http.MethodGet, "/me", "", "")

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(`"code":"AUTH_FAILED"`))
	})

	ginkgo.It("refreshes tokens", func() {
		tokens, err := service.Authenticate(context.Background(), LoginDTO{Email: "teacher@example.com", Password: "correct_password"})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		rec := do(http.MethodPost, "/auth/refresh", `{"refresh_token":"`+tokens.RefreshToken+`"}`, "")
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
	})
})
