package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"basegraph.app/coplie/common/logger"
	"basegraph.app/coplie/internal/domain"
)

// previewLen caps the prompt and output excerpts written to logs.
const previewLen = 200

var (
	ErrTimeout       = errors.New("command timed out")
	ErrNonZeroExit   = errors.New("process exited with non-zero code")
	ErrNotConfigured = errors.New("agent command is not configured")
)

// ExitError reports a process that ran to completion with a non-zero exit
// code. It matches ErrNonZeroExit.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("process exited with code %d: %s", e.Code, e.Stderr)
}

func (e *ExitError) Is(target error) bool {
	return target == ErrNonZeroExit
}

type Config struct {
	CLIPath   string
	AgentName string
	Timeout   time.Duration
	WorkDir   string // working directory for the agent process, empty inherits
}

// Executor invokes the agent CLI, one process per request, racing it against
// the configured timeout.
type Executor struct {
	cfg    Config
	runner CommandRunner
}

// NewExecutor creates an executor. A nil runner spawns real processes.
func NewExecutor(cfg Config, runner CommandRunner) *Executor {
	if runner == nil {
		runner = ExecCommandRunner{}
	}
	return &Executor{cfg: cfg, runner: runner}
}

func (e *Executor) AgentName() string {
	return e.cfg.AgentName
}

// ProcessIssue runs the configured agent with the issue's prompt.
func (e *Executor) ProcessIssue(ctx context.Context, issue domain.IssueRecord) domain.AgentResult {
	return e.Run(ctx, domain.AgentRequest{
		Prompt:  issue.Prompt(),
		AgentID: e.cfg.AgentName,
	})
}

// Run executes one agent request. It never returns an error: failures are
// reported in the result, which always carries the elapsed time.
//
// Cancellation of ctx is ignored; only the configured timeout stops the
// process.
func (e *Executor) Run(ctx context.Context, req domain.AgentRequest) domain.AgentResult {
	start := time.Now()

	ctx = logger.WithLogFields(context.WithoutCancel(ctx), logger.LogFields{
		AgentID:   logger.Ptr(req.AgentID),
		Component: "coplie.agent.executor",
	})
	sc := logger.StartSpan(ctx, "agent.execute",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("agent.id", req.AgentID),
			attribute.Int("agent.prompt_length", len(req.Prompt)),
		),
	)
	defer sc.End()
	ctx = sc.Context()

	slog.InfoContext(ctx, "executing agent command",
		"prompt_length", len(req.Prompt),
		"prompt_preview", logger.Truncate(req.Prompt, previewLen),
		"timeout_ms", e.cfg.Timeout.Milliseconds())

	output, err := e.execute(ctx, req)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "agent command failed", "error", err, "execution_time_ms", elapsed)
		return domain.AgentResult{
			Success:         false,
			Error:           err.Error(),
			ErrorKind:       errorKind(err),
			ExecutionTimeMs: elapsed,
		}
	}

	slog.InfoContext(ctx, "agent command completed",
		"execution_time_ms", elapsed,
		"output_length", len(output),
		"output_preview", logger.Truncate(output, previewLen))
	return domain.AgentResult{
		Success:         true,
		Output:          output,
		ExecutionTimeMs: elapsed,
	}
}

// BuildCommand turns a request into the command line
// `<cli path parts...> --agent <agent> <prompt>`, with double quotes in the
// prompt backslash-escaped.
func (e *Executor) BuildCommand(req domain.AgentRequest) (Command, error) {
	parts := strings.Fields(e.cfg.CLIPath)
	if len(parts) == 0 {
		return Command{}, ErrNotConfigured
	}

	escapedPrompt := strings.ReplaceAll(req.Prompt, `"`, `\"`)

	args := append([]string{}, parts[1:]...)
	args = append(args, "--agent", req.AgentID, escapedPrompt)
	return Command{Name: parts[0], Args: args, Dir: e.cfg.WorkDir}, nil
}

type runResult struct {
	out CommandOutput
	err error
}

func (e *Executor) execute(ctx context.Context, req domain.AgentRequest) (string, error) {
	cmd, err := e.BuildCommand(req)
	if err != nil {
		return "", err
	}

	runCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	done := make(chan runResult, 1)
	go func() {
		out, err := e.runner.Run(runCtx, cmd)
		done <- runResult{out: out, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
				return "", e.timeoutError()
			}
			return "", fmt.Errorf("running %s: %w", cmd.Name, res.err)
		}
		if res.out.ExitCode != 0 {
			return "", &ExitError{Code: res.out.ExitCode, Stderr: string(res.out.Stderr)}
		}
		if len(res.out.Stdout) > 0 {
			return string(res.out.Stdout), nil
		}
		return string(res.out.Stderr), nil
	case <-runCtx.Done():
		// The runner kills the process on cancel; its result is dropped.
		cancel()
		return "", e.timeoutError()
	}
}

func (e *Executor) timeoutError() error {
	return fmt.Errorf("%w after %dms", ErrTimeout, e.cfg.Timeout.Milliseconds())
}

func errorKind(err error) domain.ErrorKind {
	switch {
	case errors.Is(err, ErrTimeout):
		return domain.ErrorKindProcessTimeout
	case errors.Is(err, ErrNonZeroExit):
		return domain.ErrorKindProcessNonZeroExit
	default:
		return domain.ErrorKindProcessFailed
	}
}
