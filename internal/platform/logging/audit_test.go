package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAudit(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithLogger(context.Background(), zap.New(core))

	Audit(ctx, AuditEvent{
		Action:       "update",
		Actor:        "u-1",
		ResourceType: "profile",
		ResourceID:   "u-1",
		Result:       AuditSuccess,
		Fields:       []string{"bio"},
	})

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if entries[0].Message != "audit event" {
		t.Fatalf("unexpected message %q", entries[0].Message)
	}
	if fields["audit.action"] != "update" || fields["audit.result"] != "success" {
		t.Fatalf("unexpected audit fields: %v", fields)
	}
	if _, ok := fields["audit.reason"]; ok {
		t.Fatal("empty reason should be omitted")
	}
}

func TestAuditFailureReason(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithLogger(context.Background(), zap.New(core))

	Audit(ctx, AuditEvent{Action: "login", Actor: "alice", ResourceType: "session", Result: AuditFailure, Reason: "invalid credentials"})

	fields := recorded.All()[0].ContextMap()
	if fields["audit.reason"] != "invalid credentials" {
		t.Fatalf("unexpected reason %v", fields["audit.reason"])
	}
	if _, ok := fields["audit.fields"]; ok {
		t.Fatal("empty field list should be omitted")
	}
}
