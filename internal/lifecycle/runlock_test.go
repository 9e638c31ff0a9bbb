package lifecycle

import (
	"errors"
	"path/filepath"
	"testing"

	"plexshelf/internal/services"
)

func TestRunLockExclusive(t *testing.T) {
	lock := NewRunLock("")
	token, err := lock.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if token.RunID == "" || token.StartedAt.IsZero() {
		t.Fatalf("incomplete token %+v", token)
	}
	if active, ok := lock.Active(); !ok || active.RunID != token.RunID {
		t.Fatalf("Active = %+v, %v", active, ok)
	}

	if _, err := lock.Acquire(); !errors.Is(err, services.ErrRunAlreadyInProgress) {
		t.Fatalf("expected ErrRunAlreadyInProgress, got %v", err)
	}
	if err := lock.Release(RunToken{RunID: "someone-else"}); err == nil {
		t.Fatal("expected release with foreign token to fail")
	}
	if err := lock.Release(token); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, ok := lock.Active(); ok {
		t.Fatal("expected lock to be free")
	}
	next, err := lock.Acquire()
	if err != nil {
		t.Fatalf("re-Acquire: %v", err)
	}
	if next.RunID == token.RunID {
		t.Fatal("expected a fresh run id")
	}
}

func TestRunLockAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matching.lock")
	first := NewRunLock(path)
	second := NewRunLock(path)

	token, err := first.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := second.Acquire(); !errors.Is(err, services.ErrRunAlreadyInProgress) {
		t.Fatalf("expected file lock contention, got %v", err)
	}
	if err := first.Release(token); err != nil {
		t.Fatalf("Release: %v", err)
	}
	other, err := second.Acquire()
	if err != nil {
		t.Fatalf("second Acquire after release: %v", err)
	}
	_ = second.Release(other)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{"pending", "approved", true},
		{"pending", "rejected", true},
		{"approved", "rejected", true},
		{"rejected", "pending", true},
		{"approved", "pending", false},
		{"rejected", "approved", false},
		{"pending", "pending", false},
	}
	for _, tt := range tests {
		got := CanTransition(statusOf(tt.from), statusOf(tt.to))
		if got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
