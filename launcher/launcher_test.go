package launcher

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func lookPath(t *testing.T, name string) string {
	t.Helper()
	p, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
	return p
}

func states(ss []Status) map[string]State {
	out := make(map[string]State, len(ss))
	for _, s := range ss {
		out[s.Name] = s.State
	}
	return out
}

func TestRun_JoinsChildren(t *testing.T) {
	l := New(time.Second, zap.NewNop())
	err := l.Run(context.Background(), []Proc{
		{Name: "a", Path: lookPath(t, "true")},
		{Name: "b", Path: lookPath(t, "true")},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]State{"a": StateExited, "b": StateExited}, states(l.Status()))
}

func TestRun_ReportsFailedChild(t *testing.T) {
	l := New(time.Second, zap.NewNop())
	err := l.Run(context.Background(), []Proc{
		{Name: "ok", Path: lookPath(t, "true")},
		{Name: "bad", Path: lookPath(t, "false")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Equal(t, StateFailed, states(l.Status())["bad"])
}

func TestRun_CancelStopsChildren(t *testing.T) {
	sleep := lookPath(t, "sleep")
	l := New(time.Second, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- l.Run(ctx, []Proc{
			{Name: "item", Path: sleep, Args: []string{"30"}},
			{Name: "player", Path: sleep, Args: []string{"30"}},
		})
	}()
	require.Eventually(t, func() bool {
		s := states(l.Status())
		return s["item"] == StateRunning && s["player"] == StateRunning
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	for _, s := range l.Status() {
		assert.Equal(t, StateStopped, s.State, s.Name)
		assert.NotZero(t, s.PID)
	}
}

func TestRun_KillsAfterGrace(t *testing.T) {
	sh := lookPath(t, "sh")
	l := New(100*time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- l.Run(ctx, []Proc{{Name: "stubborn", Path: sh, Args: []string{"-c", "trap '' TERM; sleep 30"}}})
	}()
	require.Eventually(t, func() bool {
		return states(l.Status())["stubborn"] == StateRunning
	}, 2*time.Second, 10*time.Millisecond)
	// Give the shell time to install its trap.
	time.Sleep(100 * time.Millisecond)

	start := time.Now()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after grace period")
	}
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, StateStopped, states(l.Status())["stubborn"])
}

func TestRun_CleanExitOnTermIsStopped(t *testing.T) {
	sh := lookPath(t, "sh")
	l := New(5*time.Second, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- l.Run(ctx, []Proc{{Name: "polite", Path: sh, Args: []string{"-c", "trap 'kill $!; exit 0' TERM; sleep 30 & wait"}}})
	}()
	require.Eventually(t, func() bool {
		return states(l.Status())["polite"] == StateRunning
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	start := time.Now()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(4 * time.Second):
		t.Fatal("Run did not return after the child exited")
	}
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, StateStopped, states(l.Status())["polite"])
}

func TestRun_StartFailureStopsOthers(t *testing.T) {
	sleep := lookPath(t, "sleep")
	l := New(time.Second, zap.NewNop())
	err := l.Run(context.Background(), []Proc{
		{Name: "first", Path: sleep, Args: []string{"30"}},
		{Name: "missing", Path: "/nonexistent/spacemmo-binary"},
		{Name: "never", Path: sleep, Args: []string{"30"}},
	})
	require.Error(t, err)
	s := states(l.Status())
	assert.Equal(t, StateStopped, s["first"])
	assert.Equal(t, StateFailed, s["missing"])
	assert.Equal(t, StateStopped, s["never"])
}

func TestRun_RejectsEmptyAndDuplicates(t *testing.T) {
	l := New(time.Second, zap.NewNop())
	assert.Error(t, l.Run(context.Background(), nil))
	assert.Error(t, l.Run(context.Background(), []Proc{{Name: "a"}, {Name: "a"}}))
}
