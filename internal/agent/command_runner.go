package agent

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Command is one process invocation. The child inherits the server's
// environment; Dir empty means the server's working directory.
type Command struct {
	Name string
	Args []string
	Dir  string
}

// CommandOutput holds the fully captured streams of a finished process.
type CommandOutput struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// CommandRunner starts a command and waits for it. Implementations must
// return once ctx is done. A non-zero exit is reported through ExitCode, not
// as an error; errors mean the command could not be run at all.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (CommandOutput, error)
}

// ExecCommandRunner runs commands as real child processes. The process is
// killed when ctx is done.
type ExecCommandRunner struct {
	// WaitDelay bounds how long Run waits for output pipes after the process
	// is killed. Zero means 2s.
	WaitDelay time.Duration
}

func (r ExecCommandRunner) Run(ctx context.Context, cmd Command) (CommandOutput, error) {
	command := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	if cmd.Dir != "" {
		command.Dir = cmd.Dir
	}
	command.WaitDelay = r.WaitDelay
	if command.WaitDelay == 0 {
		command.WaitDelay = 2 * time.Second
	}

	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	err := command.Run()
	out := CommandOutput{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	return out, err
}
