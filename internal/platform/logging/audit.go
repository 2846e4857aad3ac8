package logging

import (
	"context"

	"go.uber.org/zap"
)

// Audit results.
const (
	AuditSuccess = "success"
	AuditFailure = "failure"
)

// AuditEvent describes a security-relevant action for compliance logs.
type AuditEvent struct {
	Action       string
	Actor        string
	ResourceType string
	ResourceID   string
	Result       string
	Fields       []string
	Reason       string
}

// Audit writes e through the request-aware logger under the "audit." namespace.
func Audit(ctx context.Context, e AuditEvent) {
	fields := []zap.Field{
		zap.String("audit.action", e.Action),
		zap.String("audit.actor", e.Actor),
		zap.String("audit.resource_type", e.ResourceType),
		zap.String("audit.resource_id", e.ResourceID),
		zap.String("audit.result", e.Result),
	}
	if len(e.Fields) > 0 {
		fields = append(fields, zap.Strings("audit.fields", e.Fields))
	}
	if e.Reason != "" {
		fields = append(fields, zap.String("audit.reason", e.Reason))
	}
	FromContext(ctx).Info("audit event", fields...)
}
