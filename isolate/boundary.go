// Package isolate runs the watermarking of untrusted documents in a child
// process so that a crash, hang or runaway allocation in the parser cannot
// take the caller down.
//
// The child is the same binary started with the worker command. It reads
// the document from stdin, writes the result to stdout and reports the
// outcome through its exit code:
//
//	0  success, stdout holds the document
//	1  failure, stderr holds the cause
//	2  malformed input
//
// Any other exit, including being killed, is an internal failure.
package isolate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/digitorus/pdfmark/common"
	"github.com/digitorus/pdfmark/geometry"
)

const (
	// DefaultMaxStderr bounds the diagnostic text kept from a worker.
	DefaultMaxStderr = 64 << 10

	// waitDelay bounds the time spent draining the pipes of a worker that
	// has exited. Processes still holding them afterwards are killed.
	waitDelay = 2 * time.Second
)

var killGroup = killProcessGroup

// Boundary spawns one worker process per Execute call.
type Boundary struct {
	// Path of the worker executable. Defaults to the running executable.
	Path string
	// Args are placed before the worker flags, e.g. the "worker" subcommand.
	Args []string
	// Env of the worker. Nil inherits the environment of the caller.
	Env []string

	// Timeout bounds the wall-clock time of one run. Zero means no limit
	// other than the context passed to Execute.
	Timeout time.Duration
	// MemoryLimit is passed to the worker as its soft memory limit in
	// bytes. Zero leaves the runtime default.
	MemoryLimit int64
	// MaxStderr bounds the captured stderr. Defaults to DefaultMaxStderr.
	MaxStderr int

	Logger *slog.Logger

	// OnStart is called with the pid of every started worker.
	OnStart func(pid int)
}

// Execute watermarks input in a new worker process. It does not return
// before the worker has exited and its pipes are closed.
func (b *Boundary) Execute(ctx context.Context, input []byte, params common.Params) Outcome {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}

	path := b.Path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return internalFailure("failed to locate worker executable: %v", err)
		}
		path = exe
	}

	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	maxStderr := b.MaxStderr
	if maxStderr <= 0 {
		maxStderr = DefaultMaxStderr
	}

	args := append(append([]string{}, b.Args...), WorkerArgs(params, b.MemoryLimit)...)
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = b.Env
	configureProcessGroup(cmd)

	pipes, err := newWorkerPipes(cmd)
	if err != nil {
		return internalFailure("failed to create worker pipes: %v", err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		pipes.closeChild()
		pipes.closeParent()
		return internalFailure("failed to start worker: %v", err)
	}
	pid := cmd.Process.Pid
	if b.OnStart != nil {
		b.OnStart(pid)
	}

	var stdout bytes.Buffer
	stderr := &limitedBuffer{limit: maxStderr}
	pipes.start(input, &stdout, stderr)

	err = cmd.Wait()
	if !pipes.drain(waitDelay) {
		// Descendants of the worker still hold its pipes, so they keep the
		// process group alive and its id cannot have been reused.
		logger.Warn("worker left processes behind", "pid", pid)
		killGroup(pid)
	}
	pipes.close()

	logger = logger.With("pid", pid, "elapsed", time.Since(start))

	if err == nil {
		logger.Debug("worker succeeded", "size", stdout.Len())
		return Outcome{Kind: Success, Output: stdout.Bytes()}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			logger.Warn("worker timed out", "timeout", b.Timeout)
			return Outcome{Kind: Timeout, Detail: "worker killed after exceeding the time limit"}
		}
		logger.Info("worker canceled")
		return internalFailure("worker canceled: %v", ctxErr)
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		logger.Error("worker failed", "error", err)
		return internalFailure("worker failed: %v", err)
	}

	outcome := classifyExit(exitErr, stderr.String())
	logger.Info("worker exited", "code", exitErr.ExitCode(), "outcome", outcome.Kind.String())
	return outcome
}

func classifyExit(exitErr *exec.ExitError, stderr string) Outcome {
	stderr = strings.TrimSpace(stderr)

	switch exitErr.ExitCode() {
	case ExitFailure:
		if stderr == "" {
			stderr = "worker failed without a diagnostic"
		}
		return Outcome{Kind: InternalFailure, Detail: stderr}
	case ExitMalformed:
		// The Go runtime also exits with 2 on a fatal error or unrecovered
		// panic, and always writes a trace when it does.
		if stderr == "" {
			return Outcome{Kind: MalformedInput}
		}
		return internalFailure("worker crashed: %s", firstLine(stderr))
	default:
		detail := fmt.Sprintf("worker terminated: %s", exitErr.ProcessState)
		if stderr != "" {
			detail += ": " + firstLine(stderr)
		}
		return Outcome{Kind: InternalFailure, Detail: detail}
	}
}

func internalFailure(format string, args ...any) Outcome {
	return Outcome{Kind: InternalFailure, Detail: fmt.Sprintf(format, args...)}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// WorkerArgs returns the worker flags for params. Paddings are passed in
// millimeters.
func WorkerArgs(params common.Params, memoryLimit int64) []string {
	args := []string{
		"--text=" + params.Text,
		"--font-size=" + formatFloat(params.FontSize),
		"--padding-w=" + formatMillimeters(params.PaddingW),
		"--padding-h=" + formatMillimeters(params.PaddingH),
		"--rot-deg=" + formatFloat(params.Rotation),
	}
	if params.Hardened {
		args = append(args, "--hardened")
	}
	if memoryLimit > 0 {
		args = append(args, "--memory-limit="+strconv.FormatInt(memoryLimit, 10))
	}
	return args
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// formatMillimeters converts l to millimeters rounded to a nanometer, so
// values given in millimeters come out as written.
func formatMillimeters(l geometry.Length) string {
	s := strconv.FormatFloat(geometry.Millimeters(l), 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

// limitedBuffer keeps the first limit bytes written to it and discards the
// rest without failing the writer.
type limitedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
			b.truncated = true
		} else {
			b.buf.Write(p)
		}
	} else if len(p) > 0 {
		b.truncated = true
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	if b.truncated {
		return b.buf.String() + " [truncated]"
	}
	return b.buf.String()
}
