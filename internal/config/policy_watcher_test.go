package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func writeTempPolicy(t *testing.T, cooldown int) string {
	t.Helper()

	tmpFile := filepath.Join(t.TempDir(), "policy.yaml")
	policy := DefaultPolicy()
	policy.Safety.CooldownSeconds = cooldown
	if err := WritePolicyFile(tmpFile, policy); err != nil {
		t.Fatalf("failed to write temp policy: %v", err)
	}
	return tmpFile
}

func TestPolicyWatcherStartLoadsInitialPolicy(t *testing.T) {
	tmpFile := writeTempPolicy(t, 60)

	var callbackCalled atomic.Bool
	var mu sync.Mutex
	var received *PolicyFile

	watcher, err := NewPolicyWatcher(PolicyWatcherConfig{
		FilePath:       tmpFile,
		DebounceMillis: 50,
	}, func(policy *PolicyFile) error {
		mu.Lock()
		received = policy
		mu.Unlock()
		callbackCalled.Store(true)
		return nil
	})
	if err != nil {
		t.Fatalf("NewPolicyWatcher failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer watcher.Stop()

	if !callbackCalled.Load() {
		t.Fatal("callback was not called on Start")
	}

	mu.Lock()
	defer mu.Unlock()
	if received == nil || received.Safety.CooldownSeconds != 60 {
		t.Fatalf("initial policy not delivered, got: %+v", received)
	}
}

func TestPolicyWatcherDetectsChange(t *testing.T) {
	tmpFile := writeTempPolicy(t, 60)

	var mu sync.Mutex
	var lastCooldown int
	var reloads atomic.Int32

	watcher, err := NewPolicyWatcher(PolicyWatcherConfig{
		FilePath:       tmpFile,
		DebounceMillis: 50,
	}, func(policy *PolicyFile) error {
		mu.Lock()
		lastCooldown = policy.Safety.CooldownSeconds
		mu.Unlock()
		reloads.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("NewPolicyWatcher failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer watcher.Stop()

	// Atomic replace, like the writer and most editors do
	updated := DefaultPolicy()
	updated.Safety.CooldownSeconds = 300
	if err := WritePolicyFile(tmpFile, updated); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for reloads.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("reload not observed, callbacks: %d", reloads.Load())
		case <-time.After(20 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if lastCooldown != 300 {
		t.Errorf("expected reloaded cooldown 300, got %d", lastCooldown)
	}
}

func TestPolicyWatcherKeepsPreviousOnInvalidEdit(t *testing.T) {
	tmpFile := writeTempPolicy(t, 60)

	var reloads atomic.Int32
	watcher, err := NewPolicyWatcher(PolicyWatcherConfig{
		FilePath:       tmpFile,
		DebounceMillis: 50,
	}, func(policy *PolicyFile) error {
		reloads.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("NewPolicyWatcher failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer watcher.Stop()

	if err := os.WriteFile(tmpFile, []byte("schema_version: v99\n"), 0644); err != nil {
		t.Fatalf("invalid write failed: %v", err)
	}

	// Give the watcher time to pick it up; the callback must not fire again
	time.Sleep(500 * time.Millisecond)
	if got := reloads.Load(); got != 1 {
		t.Errorf("invalid policy must not reach the callback, callbacks: %d", got)
	}
}

func TestPolicyWatcherValidation(t *testing.T) {
	if _, err := NewPolicyWatcher(PolicyWatcherConfig{}, func(*PolicyFile) error { return nil }); err == nil {
		t.Error("expected error for empty FilePath")
	}
	if _, err := NewPolicyWatcher(PolicyWatcherConfig{FilePath: "x.yaml"}, nil); err == nil {
		t.Error("expected error for nil callback")
	}
}

func TestPolicyWatcherStartFailsOnMissingFile(t *testing.T) {
	watcher, err := NewPolicyWatcher(PolicyWatcherConfig{
		FilePath: filepath.Join(t.TempDir(), "missing.yaml"),
	}, func(*PolicyFile) error { return nil })
	if err != nil {
		t.Fatalf("NewPolicyWatcher failed: %v", err)
	}

	if err := watcher.Start(context.Background()); err == nil {
		t.Fatal("Start should fail when the policy file does not exist")
	}
}
