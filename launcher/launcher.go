// Package launcher runs each persistence service as a child process and
// stops them together.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Proc describes one child. An empty Path re-executes the current binary.
type Proc struct {
	Name string
	Path string
	Args []string
}

// State is a child process lifecycle state.
type State string

const (
	StatePending State = "pending"
	StateRunning State = "running"
	StateStopped State = "stopped"
	StateExited  State = "exited"
	StateFailed  State = "failed"
)

// Status is a snapshot of one child.
type Status struct {
	Name      string    `json:"name"`
	State     State     `json:"state"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	ExitedAt  time.Time `json:"exited_at,omitempty"`
	Error     string    `json:"error,omitempty"`
}

type child struct {
	proc   Proc
	cmd    *exec.Cmd
	status Status
	done   chan struct{}
}

// Launcher starts and supervises children.
type Launcher struct {
	grace  time.Duration
	logger *zap.Logger

	mu       sync.Mutex
	children map[string]*child
	stopping bool
}

// New returns a launcher that waits grace between SIGTERM and SIGKILL.
func New(grace time.Duration, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{grace: grace, logger: logger, children: make(map[string]*child)}
}

// Run starts every proc and blocks until all have exited. Cancelling ctx
// sends SIGTERM to the survivors and kills whatever is left after the grace
// period. Children stopped that way are not errors; any other failure is.
func (l *Launcher) Run(ctx context.Context, procs []Proc) error {
	if len(procs) == 0 {
		return errors.New("launcher: nothing to run")
	}
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("launcher: resolve executable: %w", err)
	}

	l.mu.Lock()
	l.stopping = false
	l.children = make(map[string]*child, len(procs))
	for _, p := range procs {
		if _, dup := l.children[p.Name]; dup {
			l.mu.Unlock()
			return fmt.Errorf("launcher: duplicate process %q", p.Name)
		}
		if p.Path == "" {
			p.Path = self
		}
		l.children[p.Name] = &child{proc: p, status: Status{Name: p.Name, State: StatePending}, done: make(chan struct{})}
	}
	l.mu.Unlock()

	var startErr error
	for _, p := range procs {
		if err := l.start(p.Name); err != nil {
			startErr = err
			break
		}
	}
	if startErr != nil {
		l.abandonPending()
	}

	all := make(chan struct{})
	go func() {
		defer close(all)
		for _, c := range l.snapshot() {
			<-c.done
		}
	}()

	if startErr != nil {
		l.stop(all)
		return startErr
	}
	select {
	case <-ctx.Done():
		l.stop(all)
	case <-all:
	}
	return l.exitErrors()
}

func (l *Launcher) snapshot() []*child {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*child, 0, len(l.children))
	for _, c := range l.children {
		out = append(out, c)
	}
	return out
}

func (l *Launcher) start(name string) error {
	l.mu.Lock()
	c := l.children[name]
	cmd := exec.Command(c.proc.Path, c.proc.Args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Start()
	if err != nil {
		c.status.State = StateFailed
		c.status.Error = err.Error()
		close(c.done)
		l.mu.Unlock()
		l.logger.Error("start failed", zap.String("proc", name), zap.Error(err))
		return fmt.Errorf("launcher: start %s: %w", name, err)
	}
	c.cmd = cmd
	c.status.State = StateRunning
	c.status.PID = cmd.Process.Pid
	c.status.StartedAt = time.Now()
	l.mu.Unlock()

	l.logger.Info("started", zap.String("proc", name), zap.Int("pid", cmd.Process.Pid))
	go l.wait(c)
	return nil
}

// abandonPending releases children that were never started.
func (l *Launcher) abandonPending() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.children {
		if c.status.State == StatePending {
			c.status.State = StateStopped
			close(c.done)
		}
	}
}

func (l *Launcher) wait(c *child) {
	err := c.cmd.Wait()

	l.mu.Lock()
	c.status.ExitedAt = time.Now()
	switch {
	case l.stopping:
		c.status.State = StateStopped
	case err == nil:
		c.status.State = StateExited
	default:
		c.status.State = StateFailed
		c.status.Error = err.Error()
	}
	state := c.status.State
	l.mu.Unlock()
	close(c.done)

	fields := []zap.Field{zap.String("proc", c.proc.Name), zap.String("state", string(state))}
	if state == StateFailed {
		l.logger.Warn("exited", append(fields, zap.Error(err))...)
		return
	}
	l.logger.Info("exited", fields...)
}

// stop signals every running child and waits for all of them.
func (l *Launcher) stop(all <-chan struct{}) {
	l.mu.Lock()
	l.stopping = true
	running := make([]*child, 0, len(l.children))
	for _, c := range l.children {
		if c.status.State == StateRunning {
			running = append(running, c)
		}
	}
	l.mu.Unlock()

	for _, c := range running {
		if err := c.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
			l.logger.Warn("sigterm failed", zap.String("proc", c.proc.Name), zap.Error(err))
		}
	}

	timer := time.NewTimer(l.grace)
	defer timer.Stop()
	select {
	case <-all:
		return
	case <-timer.C:
	}
	for _, c := range running {
		select {
		case <-c.done:
		default:
			l.logger.Warn("killing after grace period", zap.String("proc", c.proc.Name), zap.Duration("grace", l.grace))
			_ = c.cmd.Process.Kill()
		}
	}
	<-all
}

func (l *Launcher) exitErrors() error {
	var errs []error
	for _, s := range l.Status() {
		if s.State == StateFailed {
			errs = append(errs, fmt.Errorf("%s: %s", s.Name, s.Error))
		}
	}
	return errors.Join(errs...)
}

// Status reports every child of the current run, sorted by name.
func (l *Launcher) Status() []Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Status, 0, len(l.children))
	for _, c := range l.children {
		out = append(out, c.status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
