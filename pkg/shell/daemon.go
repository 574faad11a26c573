package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/matter-labs/zksync-os-scripts/pkg/telemetry"
)

const (
	// daemonStartGrace is how long a freshly started daemon gets to prove
	// it did not die on the spot.
	daemonStartGrace = 2 * time.Second

	// daemonStopWait is how long Stop waits after SIGTERM before killing.
	daemonStopWait = 5 * time.Second
)

// Daemon is a long-lived background process owned by a run, such as a local
// anvil node. Callers must Stop it before the run ends.
type Daemon struct {
	name    string
	cmd     *exec.Cmd
	log     *telemetry.Logger
	tail    *tailBuffer
	done    chan struct{}
	waitErr error
}

// StartDaemon launches cmd in the background. It waits a short grace period
// and reports an error with the captured output if the process exits within
// it. The daemon's output streams into the run log at debug level. The
// daemon's lifetime is managed by Stop, not by ctx; ctx only bounds the
// startup wait.
func (s *Shell) StartDaemon(ctx context.Context, cmd Command) (*Daemon, error) {
	if err := checkCommand(cmd); err != nil {
		return nil, err
	}

	s.log.Infof("$ %s &", strings.Join(cmd.Argv, " "))

	c := exec.Command(cmd.Argv[0], cmd.Argv[1:]...)
	cmd.apply(c)

	pr, pw := io.Pipe()
	c.Stdout = pw
	c.Stderr = pw

	d := &Daemon{
		name: filepath.Base(cmd.Argv[0]),
		cmd:  c,
		log:  s.log,
		tail: newTailBuffer(tailLines),
		done: make(chan struct{}),
	}

	scanDone := make(chan struct{})
	go func() {
		defer close(scanDone)
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			line := scanner.Text()
			d.tail.Add(line)
			s.log.Debugf("[%s] %s", d.name, line)
		}
	}()

	if err := c.Start(); err != nil {
		pw.Close()
		<-scanDone
		return nil, fmt.Errorf("failed to start %s: %w", d.name, err)
	}

	go func() {
		d.waitErr = c.Wait()
		pw.Close()
		<-scanDone
		close(d.done)
	}()

	select {
	case <-d.done:
		cerr := &CommandError{
			Argv:     cmd.Argv,
			Dir:      cmd.Dir,
			ExitCode: c.ProcessState.ExitCode(),
			Tail:     d.tail.Lines(),
		}
		s.logTail(cerr)
		return nil, fmt.Errorf("%s exited during startup: %w", d.name, cerr)
	case <-ctx.Done():
		_ = d.Stop()
		return nil, ctx.Err()
	case <-time.After(daemonStartGrace):
		return d, nil
	}
}

// Running reports whether the daemon process is still alive.
func (d *Daemon) Running() bool {
	select {
	case <-d.done:
		return false
	default:
		return true
	}
}

// Stop terminates the daemon: SIGTERM first, then SIGKILL if it has not
// exited within the stop window. Safe to call after the process already
// exited, and safe to call more than once.
func (d *Daemon) Stop() error {
	select {
	case <-d.done:
		return nil
	default:
	}

	d.log.Debugf("Stopping %s", d.name)
	if err := d.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// The process likely exited between the check and the signal.
		d.log.Debugf("SIGTERM %s: %v", d.name, err)
	}

	select {
	case <-d.done:
		return nil
	case <-time.After(daemonStopWait):
		d.log.Warnf("%s did not stop within %s; killing", d.name, daemonStopWait)
		if err := d.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("failed to kill %s: %w", d.name, err)
		}
		<-d.done
		return nil
	}
}
