package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/coplie/common/logger"
	"basegraph.app/coplie/core/config"
)

var _ = Describe("Logger", func() {
	Describe("WithLogFields", func() {
		It("merges fields, preferring newer values", func() {
			ctx := logger.WithLogFields(context.Background(), logger.LogFields{
				RequestID: logger.Ptr("req-1"),
				Component: "coplie.http",
			})
			ctx = logger.WithLogFields(ctx, logger.LogFields{
				IssueIdentifier: logger.Ptr("ENG-1"),
				Component:       "coplie.service.webhook",
			})

			fields := logger.GetLogFields(ctx)
			Expect(*fields.RequestID).To(Equal("req-1"))
			Expect(*fields.IssueIdentifier).To(Equal("ENG-1"))
			Expect(fields.Component).To(Equal("coplie.service.webhook"))
			Expect(fields.RunID).To(BeNil())
		})

		It("returns empty fields for a bare context", func() {
			Expect(logger.GetLogFields(context.Background())).To(Equal(logger.LogFields{}))
		})
	})

	Describe("TraceHandler", func() {
		It("adds context fields to every record", func() {
			buf := &bytes.Buffer{}
			log := slog.New(logger.NewTraceHandler(slog.NewJSONHandler(buf, nil)))

			ctx := logger.WithLogFields(context.Background(), logger.LogFields{
				RequestID: logger.Ptr("req-1"),
				RunID:     logger.Ptr(int64(42)),
				AgentID:   logger.Ptr("product_manager"),
			})
			log.InfoContext(ctx, "dispatching issue")

			var record map[string]any
			Expect(json.Unmarshal(buf.Bytes(), &record)).To(Succeed())
			Expect(record["msg"]).To(Equal("dispatching issue"))
			Expect(record["request_id"]).To(Equal("req-1"))
			Expect(record["run_id"]).To(BeNumerically("==", 42))
			Expect(record["agent_id"]).To(Equal("product_manager"))
		})
	})

	Describe("NewHandler", func() {
		It("honours the configured level and format", func() {
			buf := &bytes.Buffer{}
			h := logger.NewHandler(config.Config{Log: config.LogConfig{Level: "warn", Format: "text"}}, buf)
			log := slog.New(h)

			log.Info("hidden")
			log.Warn("shown")

			Expect(buf.String()).NotTo(ContainSubstring("hidden"))
			Expect(buf.String()).To(ContainSubstring("msg=shown"))
		})
	})

	Describe("LevelHandler", func() {
		It("drops records below the minimum level", func() {
			buf := &bytes.Buffer{}
			inner := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
			log := slog.New(logger.NewLevelHandler(slog.LevelWarn, inner)).With("component", "test")

			log.Info("hidden")
			log.Error("shown")

			Expect(buf.String()).NotTo(ContainSubstring("hidden"))
			Expect(buf.String()).To(ContainSubstring(`"msg":"shown"`))
			Expect(buf.String()).To(ContainSubstring(`"component":"test"`))
		})
	})

	Describe("Truncate", func() {
		It("shortens long strings", func() {
			Expect(logger.Truncate("abcdef", 3)).To(Equal("abc..."))
			Expect(logger.Truncate("abc", 3)).To(Equal("abc"))
		})

		It("never splits a multi-byte rune", func() {
			out := logger.Truncate("héllo", 2)
			Expect(utf8.ValidString(out)).To(BeTrue())
			Expect(out).To(Equal("h..."))

			Expect(logger.Truncate("日本語", 4)).To(Equal("日..."))
			Expect(logger.Truncate("日本語", 0)).To(Equal("..."))
		})
	})
})
