package logging

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

// Context keys for trace correlation fields.
type contextKey string

const (
	traceIDKey contextKey = "trace_id"
	spanIDKey  contextKey = "span_id"
)

// TraceIDKey returns the context key under which a trace ID is looked up:
//
//	ctx = context.WithValue(ctx, logging.TraceIDKey(), "trace-123")
func TraceIDKey() interface{} {
	return traceIDKey
}

// SpanIDKey returns the context key under which a span ID is looked up.
func SpanIDKey() interface{} {
	return spanIDKey
}

func extractContextFields(ctx context.Context) map[string]interface{} {
	if ctx == nil {
		return nil
	}

	fields := make(map[string]interface{})
	if traceID := ctx.Value(traceIDKey); traceID != nil {
		fields["trace_id"] = traceID
	}
	if spanID := ctx.Value(spanIDKey); spanID != nil {
		fields["span_id"] = spanID
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// writeLog formats a message and routes it by severity: ERROR/FATAL to
// stderr, everything else to stdout.
func (l *Logger) writeLog(level, msg string, fields map[string]interface{}) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s: %s", Timestamp(), level, l.name, msg)

	if len(fields) > 0 {
		b.WriteString(" |")
		for k, v := range fields {
			fmt.Fprintf(&b, " %s=%v", k, v)
		}
	}

	if level == levelNameError || level == levelNameFatal {
		fmt.Fprintf(os.Stderr, "%s\n", b.String())
	} else {
		log.Println(b.String())
	}
}

// logf formats the message and merges context fields with the logger's
// persistent fields before writing.
func (l *Logger) logf(level, msg string, args ...interface{}) {
	formatted := fmt.Sprintf(msg, args...)

	contextFields := extractContextFields(l.ctx)
	var merged map[string]interface{}
	if contextFields != nil || len(l.fields) > 0 {
		merged = make(map[string]interface{})
		for k, v := range contextFields {
			merged[k] = v
		}
		for k, v := range l.fields {
			merged[k] = v
		}
	}

	l.writeLog(level, formatted, merged)
}

// Timestamp returns the RFC3339 timestamp used in log lines. LOG_TIMESTAMP
// overrides it for deterministic test output.
func Timestamp() string {
	if override := os.Getenv("LOG_TIMESTAMP"); override != "" {
		return override
	}
	return time.Now().Format(time.RFC3339)
}
