package agent

import (
	"context"
	"sync"
	"time"
)

// DryRunOutput is what FakeCommandRunner returns by default.
const DryRunOutput = "Mock Copilot response for testing"

// FakeCommandRunner is a deterministic CommandRunner that never spawns a
// process. It backs dry-run mode and tests.
type FakeCommandRunner struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
	// Delay is waited before returning, unless ctx is done first.
	Delay time.Duration

	mu    sync.Mutex
	calls []Command
}

// NewDryRunRunner returns a fake runner that succeeds immediately with
// DryRunOutput.
func NewDryRunRunner() *FakeCommandRunner {
	return &FakeCommandRunner{Stdout: DryRunOutput}
}

func (f *FakeCommandRunner) Run(ctx context.Context, cmd Command) (CommandOutput, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()

	if f.Delay > 0 {
		timer := time.NewTimer(f.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return CommandOutput{}, ctx.Err()
		}
	}

	if f.Err != nil {
		return CommandOutput{}, f.Err
	}
	return CommandOutput{
		Stdout:   []byte(f.Stdout),
		Stderr:   []byte(f.Stderr),
		ExitCode: f.ExitCode,
	}, nil
}

// Calls returns a copy of every command Run has received.
func (f *FakeCommandRunner) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.calls...)
}
