package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/matter-labs/zksync-os-scripts/pkg/telemetry"
)

const (
	// tailLines is how many trailing output lines a failed command reports.
	tailLines = 20

	// maxLineBytes bounds a single scanned output line.
	maxLineBytes = 1024 * 1024
)

// Command describes one external command invocation.
type Command struct {
	// Argv is the program and its arguments. Argv[0] must be non-empty.
	Argv []string

	// Dir is the working directory. When set it must exist; empty means
	// the current directory.
	Dir string

	// Env is overlaid on the parent environment.
	Env map[string]string

	// Stdin feeds the command's standard input when set.
	Stdin io.Reader

	// Quiet demotes the echo line to debug, for repetitive invocations
	// that would drown the run log.
	Quiet bool
}

// checkCommand validates the invocation before anything is spawned.
func checkCommand(cmd Command) error {
	if len(cmd.Argv) == 0 || cmd.Argv[0] == "" {
		return fmt.Errorf("empty command")
	}
	if cmd.Dir == "" {
		return nil
	}
	info, err := os.Stat(cmd.Dir)
	if err != nil {
		return fmt.Errorf("working directory %s does not exist: %w", cmd.Dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("working directory %s is not a directory", cmd.Dir)
	}
	return nil
}

// apply copies the invocation onto a prepared exec.Cmd.
func (cmd Command) apply(c *exec.Cmd) {
	c.Dir = cmd.Dir
	c.Stdin = cmd.Stdin
	if len(cmd.Env) > 0 {
		env := os.Environ()
		for k, v := range cmd.Env {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		c.Env = env
	}
}

// CommandError reports a command that started but exited non-zero.
type CommandError struct {
	Argv     []string
	Dir      string
	ExitCode int
	Tail     []string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q exited with code %d", strings.Join(e.Argv, " "), e.ExitCode)
}

// AsCommandError unwraps err into the CommandError it carries, if any.
func AsCommandError(err error) (*CommandError, bool) {
	var cerr *CommandError
	if errors.As(err, &cerr) {
		return cerr, true
	}
	return nil, false
}

// tailBuffer keeps the last n lines written to it.
type tailBuffer struct {
	n     int
	lines []string
}

func newTailBuffer(n int) *tailBuffer {
	return &tailBuffer{n: n}
}

func (b *tailBuffer) Add(line string) {
	b.lines = append(b.lines, line)
	if len(b.lines) > b.n {
		b.lines = b.lines[1:]
	}
}

func (b *tailBuffer) Lines() []string {
	return b.lines
}

// Shell executes external commands with run-scoped logging, metrics, and
// tracing. The zero Options value gives a quiet shell logging to stderr.
type Shell struct {
	log     *telemetry.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer
	verbose bool
}

// Options configures a Shell. Metrics and Tracer are optional.
type Options struct {
	Logger  *telemetry.Logger
	Metrics *telemetry.Metrics
	Tracer  *telemetry.Tracer

	// Verbose streams command output at info level instead of debug.
	Verbose bool
}

// New creates a Shell.
func New(opts Options) *Shell {
	if opts.Logger == nil {
		opts.Logger = telemetry.FromContext(context.Background())
	}
	if opts.Metrics == nil {
		opts.Metrics = &telemetry.Metrics{}
	}
	return &Shell{
		log:     opts.Logger,
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
		verbose: opts.Verbose,
	}
}

// Run executes cmd in the foreground, streaming its combined output line by
// line into the run log. On a non-zero exit the returned CommandError
// carries the last lines of output.
func (s *Shell) Run(ctx context.Context, cmd Command) error {
	_, err := s.run(ctx, cmd, false)
	return err
}

// Output executes cmd and returns its combined output. The output still
// goes to the run log, at debug level.
func (s *Shell) Output(ctx context.Context, cmd Command) (string, error) {
	return s.run(ctx, cmd, true)
}

func (s *Shell) run(ctx context.Context, cmd Command, capture bool) (string, error) {
	if err := checkCommand(cmd); err != nil {
		return "", err
	}

	name := filepath.Base(cmd.Argv[0])
	if cmd.Quiet {
		s.log.Debugf("$ %s", strings.Join(cmd.Argv, " "))
	} else {
		s.log.Infof("$ %s", strings.Join(cmd.Argv, " "))
	}

	runCtx := ctx
	var span trace.Span
	if s.tracer != nil {
		runCtx, span = s.tracer.StartCommandSpan(ctx, name)
		defer span.End()
	}

	c := exec.CommandContext(runCtx, cmd.Argv[0], cmd.Argv[1:]...)
	cmd.apply(c)

	pr, pw := io.Pipe()
	c.Stdout = pw
	c.Stderr = pw

	var captured strings.Builder
	tail := newTailBuffer(tailLines)
	scanDone := make(chan struct{})
	go func() {
		defer close(scanDone)
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			line := scanner.Text()
			tail.Add(line)
			if capture {
				captured.WriteString(line)
				captured.WriteByte('\n')
			}
			s.logLine(capture, line)
		}
	}()

	timer := telemetry.NewTimer()
	err := c.Run()
	pw.Close()
	<-scanDone
	duration := timer.Duration()

	status := "success"
	if err != nil {
		status = "failure"
	}
	s.metrics.RecordCommand(name, status, duration)
	if span != nil {
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			telemetry.RecordSuccess(span)
		}
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cerr := &CommandError{
				Argv:     cmd.Argv,
				Dir:      cmd.Dir,
				ExitCode: exitErr.ExitCode(),
				Tail:     tail.Lines(),
			}
			s.logTail(cerr)
			return captured.String(), cerr
		}
		return captured.String(), fmt.Errorf("failed to execute %s: %w", name, err)
	}
	return captured.String(), nil
}

func (s *Shell) logLine(captured bool, line string) {
	if s.verbose && !captured {
		s.log.Info(line)
		return
	}
	s.log.Debug(line)
}

func (s *Shell) logTail(e *CommandError) {
	if len(e.Tail) == 0 {
		return
	}
	s.log.Errorf("Last %d line(s) of output:", len(e.Tail))
	for _, line := range e.Tail {
		s.log.Errorf("  %s", line)
	}
}
