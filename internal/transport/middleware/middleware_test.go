package middleware_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/frahmantamala/school-core/internal"
	"github.com/frahmantamala/school-core/internal/transport/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RequestID", func() {
	It("generates a trace id and exposes request meta", func() {
		var meta internal.RequestMeta
		h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			meta = internal.RequestMetaFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.7:5123"
		req.Header.Set("User-Agent", "sheet-uploader/1.0")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(meta.TraceID).NotTo(BeEmpty())
		Expect(rec.Header().Get(middleware.TraceIDHeader)).To(Equal(meta.TraceID))
		Expect(meta.IPAddress).To(Equal("10.0.0.7"))
		Expect(meta.UserAgent).To(Equal("sheet-uploader/1.0"))
	})

	It("keeps an incoming trace id and prefers the forwarded address", func() {
		var meta internal.RequestMeta
		h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			meta = internal.RequestMetaFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.TraceIDHeader, "trace-123")
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		h.ServeHTTP(httptest.NewRecorder(), req)

		Expect(meta.TraceID).To(Equal("trace-123"))
		Expect(meta.IPAddress).To(Equal("203.0.113.9"))
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("answers a panic with the INTERNAL_ERROR envelope", func() {
		h := middleware.RecoveryMiddleware(quietLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).To(MatchJSON(
			`{"success":false,"error":{"code":"INTERNAL_ERROR","message":"Internal server error","details":{}}}`))
		Expect(rec.Body.String()).NotTo(ContainSubstring("boom"))
	})
})

var _ = Describe("LoggingMiddleware", func() {
	It("masks credentials and leaves the body readable downstream", func() {
		var buf bytes.Buffer
		lg := slog.New(slog.NewTextHandler(&buf, nil))
		var seen string
		h := middleware.LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			seen = string(b)
			w.WriteHeader(http.StatusOK)
		}))

		body := `{"email":"a@b.test","password":"hunter2"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer abc")
		h.ServeHTTP(httptest.NewRecorder(), req)

		Expect(seen).To(Equal(body))
		Expect(buf.String()).NotTo(ContainSubstring("hunter2"))
		Expect(buf.String()).NotTo(ContainSubstring("Bearer abc"))
		Expect(buf.String()).To(ContainSubstring("[FILTERED]"))
	})

	It("does not log uploaded rows", func() {
		var buf bytes.Buffer
		lg := slog.New(slog.NewTextHandler(&buf, nil))
		h := middleware.LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/1/uploads/attendance",
			strings.NewReader(`{"rows":[{"student_name":"Jane Roe"}]}`))
		req.Header.Set("Content-Type", "application/json")
		h.ServeHTTP(httptest.NewRecorder(), req)

		Expect(buf.String()).NotTo(ContainSubstring("Jane Roe"))
	})

	It("masks row outcomes in batch responses", func() {
		var buf bytes.Buffer
		lg := slog.New(slog.NewTextHandler(&buf, nil))
		h := middleware.LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"partially_succeeded","outcomes":[{"raw_value":"Jane Roe"}]}`))
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/projects/1/uploads/attendance/5", nil))

		Expect(buf.String()).To(ContainSubstring("partially_succeeded"))
		Expect(buf.String()).NotTo(ContainSubstring("Jane Roe"))
	})
})

var _ = Describe("SecureHeaders", func() {
	It("sets hardening headers", func() {
		h := middleware.SecureHeaders(false, quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Header().Get("X-Frame-Options")).To(Equal("DENY"))
		Expect(rec.Header().Get("X-Content-Type-Options")).To(Equal("nosniff"))
	})
})

var _ = Describe("RateLimit", func() {
	It("rejects the request over the limit with an envelope", func() {
		h := middleware.RateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}))

		codes := make([]int, 3)
		var last *httptest.ResponseRecorder
		for i := range codes {
			req := httptest.NewRequest(http.MethodPost, "/uploads/attendance", nil)
			req.RemoteAddr = "198.51.100.4:1000"
			last = httptest.NewRecorder()
			h.ServeHTTP(last, req)
			codes[i] = last.Code
		}

		Expect(codes).To(Equal([]int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}))
		Expect(last.Body.String()).To(ContainSubstring(`"success":false`))
	})

	It("is disabled by a zero limit", func() {
		h := middleware.RateLimit(0, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		for range 5 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
		}
	})
})

var _ = Describe("CORS", func() {
	It("answers preflight for an allowed origin only", func() {
		h := middleware.CORS("https://school.test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest(http.MethodOptions, "/api/v1/ping", nil)
		req.Header.Set("Origin", "https://school.test")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://school.test"))

		req.Header.Set("Origin", "https://evil.test")
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})

	It("exposes the trace id header on simple requests", func() {
		var reached bool
		h := middleware.CORS("https://school.test, https://admin.school.test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
		req.Header.Set("Origin", "https://admin.school.test")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(reached).To(BeTrue())
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://admin.school.test"))
		Expect(strings.ToLower(rec.Header().Get("Access-Control-Expose-Headers"))).To(ContainSubstring("x-trace-id"))
	})
})
