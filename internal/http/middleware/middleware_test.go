package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/coplie/common/logger"
	"basegraph.app/coplie/internal/http/middleware"
)

var _ = Describe("middleware", func() {
	var (
		router *gin.Engine
		buf    *bytes.Buffer
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		buf = &bytes.Buffer{}
		slog.SetDefault(slog.New(logger.NewTraceHandler(slog.NewJSONHandler(buf, nil))))
	})

	Describe("RequestID", func() {
		var seen string

		BeforeEach(func() {
			seen = ""
			router.Use(middleware.RequestID(""))
			router.GET("/ping", func(c *gin.Context) {
				if id := logger.GetLogFields(c.Request.Context()).RequestID; id != nil {
					seen = *id
				}
				c.Status(http.StatusNoContent)
			})
		})

		It("generates a UUID when the header is absent", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

			id := w.Header().Get("X-Request-Id")
			_, err := uuid.Parse(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(Equal(id))
		})

		It("keeps an incoming request id", func() {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set("X-Request-Id", "req-abc")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Header().Get("X-Request-Id")).To(Equal("req-abc"))
			Expect(seen).To(Equal("req-abc"))
		})
	})

	Describe("Recovery", func() {
		BeforeEach(func() {
			router.Use(middleware.Recovery())
			router.GET("/boom", func(c *gin.Context) {
				panic("kaboom")
			})
		})

		It("returns a webhook-error body with status 500", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

			Expect(w.Code).To(Equal(http.StatusInternalServerError))

			var body map[string]string
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body["status"]).To(Equal("error"))
			Expect(body["code"]).To(Equal("INTERNAL_ERROR"))
			Expect(body["error"]).To(Equal("Internal server error"))
			Expect(w.Body.String()).NotTo(ContainSubstring("kaboom"))
			Expect(buf.String()).To(ContainSubstring("kaboom"))
		})
	})

	Describe("Logger", func() {
		It("logs method, path and status", func() {
			router.Use(middleware.Logger())
			router.GET("/missing", func(c *gin.Context) {
				c.Status(http.StatusNotFound)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

			var entry map[string]any
			Expect(json.Unmarshal(buf.Bytes(), &entry)).To(Succeed())
			Expect(entry["msg"]).To(Equal("http request"))
			Expect(entry["level"]).To(Equal("WARN"))
			Expect(entry["method"]).To(Equal("GET"))
			Expect(entry["path"]).To(Equal("/missing"))
			Expect(entry["status"]).To(BeNumerically("==", 404))
		})
	})
})
