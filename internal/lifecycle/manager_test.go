package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeComponent records start/stop calls into a shared journal so tests
// can assert ordering across components.
type fakeComponent struct {
	name     string
	startErr error
	stopErr  error
	slow     time.Duration
	journal  *[]string
}

func (f *fakeComponent) Start(ctx context.Context) error {
	*f.journal = append(*f.journal, "start:"+f.name)
	return f.startErr
}

func (f *fakeComponent) Stop(ctx context.Context) error {
	if f.slow > 0 {
		select {
		case <-time.After(f.slow):
		case <-ctx.Done():
			*f.journal = append(*f.journal, "stop-timeout:"+f.name)
			return ctx.Err()
		}
	}
	*f.journal = append(*f.journal, "stop:"+f.name)
	return f.stopErr
}

func (f *fakeComponent) Name() string {
	return f.name
}

func TestStartStopOrder(t *testing.T) {
	var journal []string
	storage := &fakeComponent{name: "storage", journal: &journal}
	api := &fakeComponent{name: "api", journal: &journal}
	loop := &fakeComponent{name: "loop", journal: &journal}

	m := NewManager()
	if err := m.Register(storage); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}
	if err := m.Register(api, storage); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}
	if err := m.Register(loop, api); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if err := m.Stop(context.Background()); err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}

	want := []string{
		"start:storage", "start:api", "start:loop",
		"stop:loop", "stop:api", "stop:storage",
	}
	if len(journal) != len(want) {
		t.Fatalf("expected %d journal entries, got %d: %v", len(want), len(journal), journal)
	}
	for i, entry := range want {
		if journal[i] != entry {
			t.Errorf("journal[%d]: expected %s, got %s", i, entry, journal[i])
		}
	}
}

func TestStartRollbackOnFailure(t *testing.T) {
	var journal []string
	first := &fakeComponent{name: "first", journal: &journal}
	broken := &fakeComponent{name: "broken", startErr: errors.New("boom"), journal: &journal}

	m := NewManager()
	if err := m.Register(first); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}
	if err := m.Register(broken, first); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}

	err := m.Start(context.Background())
	if err == nil {
		t.Fatalf("expected start error")
	}

	// The already-started component is rolled back
	want := []string{"start:first", "start:broken", "stop:first"}
	if len(journal) != len(want) {
		t.Fatalf("expected journal %v, got %v", want, journal)
	}
	for i, entry := range want {
		if journal[i] != entry {
			t.Errorf("journal[%d]: expected %s, got %s", i, entry, journal[i])
		}
	}

	if m.IsRunning(first) {
		t.Errorf("expected first to be stopped after rollback")
	}
}

func TestRegisterValidation(t *testing.T) {
	var journal []string
	a := &fakeComponent{name: "a", journal: &journal}
	b := &fakeComponent{name: "b", journal: &journal}
	unregistered := &fakeComponent{name: "ghost", journal: &journal}

	m := NewManager()
	if err := m.Register(nil); err == nil {
		t.Errorf("expected error registering nil component")
	}
	if err := m.Register(a); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}
	if err := m.Register(a); err == nil {
		t.Errorf("expected error on duplicate registration")
	}
	if err := m.Register(b, unregistered); err == nil {
		t.Errorf("expected error on unregistered dependency")
	}
}

func TestStopTimeout(t *testing.T) {
	var journal []string
	slow := &fakeComponent{name: "slow", slow: time.Second, journal: &journal}

	m := NewManager()
	m.SetShutdownTimeout(20 * time.Millisecond)
	if err := m.Register(slow); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	// Stop returns nil even when the component exceeds its grace period
	if err := m.Stop(context.Background()); err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}

	if len(journal) != 2 || journal[1] != "stop-timeout:slow" {
		t.Errorf("expected stop timeout entry, got %v", journal)
	}
	if m.IsRunning(slow) {
		t.Errorf("expected component marked stopped after timeout")
	}
}
