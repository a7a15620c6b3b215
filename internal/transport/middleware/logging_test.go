package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/exiledproject/launcher-cms/internal/transport/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Transport Middleware Suite")
}

var _ = Describe("LoggingMiddleware", func() {
	var (
		logBuf  *bytes.Buffer
		handler http.Handler
	)

	serve := func(inner http.HandlerFunc, method, target, body string) {
		logBuf = &bytes.Buffer{}
		logger := slog.New(slog.NewJSONHandler(logBuf, nil))
		handler = middleware.LoggingMiddleware(logger)(inner)

		req := httptest.NewRequest(method, target, strings.NewReader(body))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	It("should filter credentials from the request body", func() {
		serve(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}, http.MethodPost, "/api/v1/login", `{"login":"admin","password":"admin123"}`)

		Expect(logBuf.String()).NotTo(ContainSubstring("admin123"))
		Expect(logBuf.String()).To(ContainSubstring("[FILTERED]"))
	})

	It("should filter the 2FA provisioning material from the response body", func() {
		serve(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"provisioning_uri":"otpauth://totp/LauncherCMS:admin?secret=JBSWY3DP","qr_code_png":"iVBOR"}`))
		}, http.MethodPost, "/api/v1/2fa/setup", "")

		Expect(logBuf.String()).NotTo(ContainSubstring("JBSWY3DP"))
		Expect(logBuf.String()).NotTo(ContainSubstring("iVBOR"))
	})

	It("should keep harmless fields readable", func() {
		serve(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}, http.MethodPost, "/api/v1/news", `{"title":"Вайп"}`)

		Expect(logBuf.String()).To(ContainSubstring("Вайп"))
	})
})
