package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedactSecrets(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.Info("login", "username", "bob", "password", "hunter2", "access_token", "abc")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["username"] != "bob" {
		t.Fatalf("username changed: %v", fields["username"])
	}
	if fields["password"] != "[REDACTED]" || fields["access_token"] != "[REDACTED]" {
		t.Fatalf("secrets not redacted: %v", fields)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("offline", "loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	l, err := New("online", "warn")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.With("component", "test").Debug("dropped")
}
