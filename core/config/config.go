package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	OTel    OTelConfig
	Linear  LinearConfig
	Agent   AgentConfig
	Log     LogConfig
	Env     string
	Host    string
	Port    string
	NodeID  int64
	Request RequestConfig
}

type OTelConfig struct {
	Endpoint       string
	Headers        string // comma-separated key=value, values URL-encoded
	ServiceName    string
	ServiceVersion string
	SampleRatio    float64 // fraction of root traces kept, 0..1
}

type LinearConfig struct {
	// WebhookSecret signs webhook deliveries. Empty disables signature
	// verification entirely; only do that for local development.
	WebhookSecret string
}

type AgentConfig struct {
	CLIPath string // base command, may include arguments ("gh copilot")
	Name    string
	Timeout time.Duration
	DryRun  bool   // use the canned in-process runner instead of spawning CLIPath
	WorkDir string // working directory for the agent process, empty inherits
}

type LogConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json" or "text"
}

type RequestConfig struct {
	IDHeader string
}

// Load loads configuration from environment variables.
// In development, a .env file in the working directory is loaded first.
func Load() (Config, error) {
	if getEnv("COPLIE_ENV", "development") == "development" {
		_ = godotenv.Load(".env")
	}

	cfg := Config{
		Env:    getEnv("COPLIE_ENV", "development"),
		Host:   getEnv("HOST", "0.0.0.0"),
		Port:   getEnv("PORT", "3000"),
		NodeID: int64(getEnvInt("NODE_ID", 1)),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "coplie"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			SampleRatio:    getEnvFloat("OTEL_TRACES_SAMPLER_ARG", 1),
		},
		Linear: LinearConfig{
			WebhookSecret: getEnv("LINEAR_WEBHOOK_SECRET", ""),
		},
		// COPILOT_* are the names the first deployments used
		Agent: AgentConfig{
			CLIPath: getEnv("AGENT_CLI_PATH", getEnv("COPILOT_CLI_PATH", "copilot")),
			Name:    getEnv("AGENT_NAME", "product_manager"),
			Timeout: time.Duration(getEnvInt("AGENT_TIMEOUT_MS", getEnvInt("COPILOT_TIMEOUT", 30000))) * time.Millisecond,
			DryRun:  getEnvBool("AGENT_DRY_RUN", false),
			WorkDir: getEnv("AGENT_WORKDIR", ""),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
		Request: RequestConfig{
			IDHeader: getEnv("REQUEST_ID_HEADER", "X-Request-Id"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Agent.CLIPath) == "" {
		return fmt.Errorf("AGENT_CLI_PATH is required")
	}
	if c.Agent.Name == "" {
		return fmt.Errorf("AGENT_NAME is required")
	}
	if c.Agent.Timeout <= 0 {
		return fmt.Errorf("AGENT_TIMEOUT_MS must be positive")
	}
	if c.OTel.SampleRatio < 0 || c.OTel.SampleRatio > 1 {
		return fmt.Errorf("OTEL_TRACES_SAMPLER_ARG must be between 0 and 1")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("LOG_FORMAT %q is not one of json, text", c.Log.Format)
	}
	return nil
}

func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c LinearConfig) VerificationEnabled() bool {
	return c.WebhookSecret != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
