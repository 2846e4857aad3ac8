package logging

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

const traceparentHeader = "traceparent"

// W3C Trace Context: {version}-{trace-id}-{parent-id}-{trace-flags}
var traceparentRe = regexp.MustCompile(`^([0-9a-fA-F]{2})-([0-9a-fA-F]{32})-([0-9a-fA-F]{16})-([0-9a-fA-F]{2})$`)

type traceContext struct {
	resource string
	spanID   string
	sampled  bool
}

// parseTraceparent resolves a traceparent header into a Cloud Trace resource.
// It returns false when projectID is empty or the header is malformed.
func parseTraceparent(header, projectID string) (traceContext, bool) {
	if projectID == "" {
		return traceContext{}, false
	}
	m := traceparentRe.FindStringSubmatch(header)
	if len(m) != 5 {
		return traceContext{}, false
	}
	return traceContext{
		resource: fmt.Sprintf("projects/%s/traces/%s", projectID, m[2]),
		spanID:   m[3],
		sampled:  m[4] == "01",
	}, true
}

func (tc traceContext) fields() []zap.Field {
	return []zap.Field{
		zap.String("logging.googleapis.com/trace", tc.resource),
		zap.String("logging.googleapis.com/spanId", tc.spanID),
		zap.Bool("logging.googleapis.com/trace_sampled", tc.sampled),
	}
}
