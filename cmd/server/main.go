package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"basegraph.app/coplie/common/id"
	"basegraph.app/coplie/common/logger"
	"basegraph.app/coplie/common/otel"
	"basegraph.app/coplie/core/config"
	"basegraph.app/coplie/internal/agent"
	"basegraph.app/coplie/internal/http/middleware"
	httprouter "basegraph.app/coplie/internal/http/router"
	"basegraph.app/coplie/internal/service"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "coplie starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)

	if !cfg.Linear.VerificationEnabled() {
		slog.WarnContext(ctx, "LINEAR_WEBHOOK_SECRET is not set, webhook signatures will not be verified")
	}

	ids, err := id.NewGenerator(cfg.NodeID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	var runner agent.CommandRunner
	if cfg.Agent.DryRun {
		slog.WarnContext(ctx, "agent dry run enabled, no process will be spawned")
		runner = agent.NewDryRunRunner()
	}
	executor := agent.NewExecutor(agent.Config{
		CLIPath:   cfg.Agent.CLIPath,
		AgentName: cfg.Agent.Name,
		Timeout:   cfg.Agent.Timeout,
		WorkDir:   cfg.Agent.WorkDir,
	}, runner)

	webhooks := service.NewWebhookService(service.WebhookServiceConfig{
		Verifier: service.NewSignatureVerifier(cfg.Linear.WebhookSecret),
		Executor: executor,
		IDs:      ids,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, webhooks)
	// WriteTimeout leaves room for the agent, which runs inside the request.
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Agent.Timeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting",
			"addr", cfg.Addr(),
			"agent", cfg.Agent.Name,
			"cli_path", cfg.Agent.CLIPath,
			"timeout_ms", cfg.Agent.Timeout.Milliseconds(),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	// In-flight deliveries may be waiting on the agent.
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Agent.Timeout+10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, webhooks service.WebhookService) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → RequestID tags the context → Logger logs with both
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID(cfg.Request.IDHeader))
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, webhooks, httprouter.RouterConfig{
		ServiceName: cfg.OTel.ServiceName,
		Version:     cfg.OTel.ServiceVersion,
	})

	return router
}

const banner = `
 ██████╗ ██████╗ ██████╗ ██╗     ██╗███████╗
██╔════╝██╔═══██╗██╔══██╗██║     ██║██╔════╝
██║     ██║   ██║██████╔╝██║     ██║█████╗  
██║     ██║   ██║██╔═══╝ ██║     ██║██╔══╝  
╚██████╗╚██████╔╝██║     ███████╗██║███████╗
 ╚═════╝ ╚═════╝ ╚═╝     ╚══════╝╚═╝╚══════╝
`
