package extractor

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/go-faster/errors"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/pavelc4/aether-fetch/pkg/logger"
)

// waitDelay bounds how long Wait blocks on pipes still held by orphaned grandchildren.
const waitDelay = 5 * time.Second

type Runner struct {
	path    string
	limiter *Limiter
}

func NewRunner(path string, limiter *Limiter) *Runner {
	if limiter == nil {
		limiter = NewLimiter(1)
	}
	return &Runner{path: path, limiter: limiter}
}

func (r *Runner) Path() string {
	return r.path
}

func (r *Runner) Limiter() *Limiter {
	return r.limiter
}

// Run executes the tool and returns its stdout. A zero timeout means no limit
// beyond ctx. Time spent waiting for a limiter slot counts toward timeout.
// On timeout the whole process tree is killed. Every failure is an *Error.
func (r *Runner) Run(ctx context.Context, op string, timeout time.Duration, args []string) ([]byte, error) {
	return r.run(ctx, op, timeout, args, true)
}

// Probe is Run without the limiter, for short calls such as --version that
// must not queue behind long downloads.
func (r *Runner) Probe(ctx context.Context, op string, timeout time.Duration, args []string) ([]byte, error) {
	return r.run(ctx, op, timeout, args, false)
}

func (r *Runner) run(ctx context.Context, op string, timeout time.Duration, args []string, limited bool) ([]byte, error) {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if limited {
		if err := r.limiter.Acquire(runCtx); err != nil {
			if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
				logger.Warn("Extractor timed out waiting for a slot", "op", op, "timeout", timeout)
				return nil, &Error{Kind: KindTimeout, Op: op, Err: errors.Wrap(err, "wait for extractor slot")}
			}
			return nil, &Error{Kind: KindSystem, Op: op, Err: errors.Wrap(err, "wait for extractor slot")}
		}
		defer r.limiter.Release()
	}

	cmd := exec.CommandContext(runCtx, r.path, args...)
	cmd.Cancel = func() error {
		return killTree(cmd)
	}
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("Running extractor", "op", op, "cmd", shellescape.QuoteCommand(append([]string{r.path}, args...)))

	start := time.Now()
	err := cmd.Run()
	if err == nil {
		logger.Debug("Extractor finished", "op", op, "duration", time.Since(start).Round(time.Millisecond))
		return stdout.Bytes(), nil
	}

	errText := strings.TrimSpace(stderr.String())

	switch {
	case ctx.Err() != nil:
		return nil, &Error{Kind: KindSystem, Op: op, Stderr: errText, Err: ctx.Err()}
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		logger.Warn("Extractor timed out", "op", op, "timeout", timeout)
		return nil, &Error{Kind: KindTimeout, Op: op, Stderr: errText, Err: runCtx.Err()}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil, &Error{Kind: KindProcess, Op: op, Stderr: errText, Err: err}
	}
	return nil, &Error{Kind: KindSystem, Op: op, Stderr: errText, Err: err}
}

// killTree kills the process and every descendant it spawned (ffmpeg, aria2c, ...).
func killTree(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}

	root, err := process.NewProcess(int32(cmd.Process.Pid))
	if err != nil {
		return cmd.Process.Kill()
	}
	killDescendants(root)

	if err := cmd.Process.Kill(); err != nil {
		logger.Debug("Kill extractor failed", "pid", cmd.Process.Pid, "error", err)
		return err
	}
	return nil
}

func killDescendants(p *process.Process) {
	children, err := p.Children()
	if err != nil {
		return
	}
	for _, child := range children {
		killDescendants(child)
		if err := child.Kill(); err != nil {
			logger.Debug("Kill child failed", "pid", child.Pid, "error", err)
		}
	}
}
