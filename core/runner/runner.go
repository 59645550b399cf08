package runner

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	agenterrors "inventory-agent/core/errors"

	"go.uber.org/zap"
)

// maxStderr bounds how much stderr is kept in an error message.
const maxStderr = 4096

// Command describes one external tool invocation.
type Command struct {
	// Path is the executable name or absolute path.
	Path string
	// Args is the fixed argument list.
	Args []string
	// Timeout bounds the run; the process is killed when it expires.
	Timeout time.Duration
}

func (c Command) String() string {
	return strings.TrimSpace(c.Path + " " + strings.Join(c.Args, " "))
}

// Result holds the captured output of a successful run.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Runner executes external tools.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs tools as child processes.
type ExecRunner struct {
	logger *zap.Logger
}

// New creates a new ExecRunner.
func New(logger *zap.Logger) *ExecRunner {
	return &ExecRunner{logger: logger}
}

// Run executes the command and captures stdout and stderr.
// Errors are classified as ToolUnavailable, ToolTimeout or ToolExecutionError.
func (r *ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	path, err := exec.LookPath(c.Path)
	if err != nil {
		return Result{}, agenterrors.Wrap(agenterrors.KindToolUnavailable, fmt.Sprintf("%s not found", c.Path), err)
	}

	runCtx := ctx
	cancel := func() {}
	if c.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, c.Timeout)
	}
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, path, c.Args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Force untranslated output so parsers see stable labels.
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	cmd.WaitDelay = time.Second

	start := time.Now()
	err = cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), Duration: time.Since(start)}

	r.logger.Debug("Tool finished",
		zap.String("command", c.String()),
		zap.Duration("duration", res.Duration),
		zap.Int("stdout_bytes", stdout.Len()),
		zap.Error(err),
	)

	if err == nil {
		return res, nil
	}

	if ctx.Err() != nil {
		return res, agenterrors.Wrap(agenterrors.KindToolExecutionError, fmt.Sprintf("%s cancelled", c.Path), ctx.Err())
	}
	if stderrors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return res, agenterrors.Wrap(agenterrors.KindToolTimeout, fmt.Sprintf("%s timed out after %s", c.Path, c.Timeout), runCtx.Err())
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return res, agenterrors.Wrap(agenterrors.KindToolExecutionError,
			fmt.Sprintf("%s exited with code %d: %s", c.Path, exitErr.ExitCode(), trimStderr(res.Stderr)), err)
	}
	return res, agenterrors.Wrap(agenterrors.KindToolExecutionError, fmt.Sprintf("%s failed", c.Path), err)
}

func trimStderr(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxStderr {
		s = s[:maxStderr] + "..."
	}
	return s
}
