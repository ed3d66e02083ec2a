// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// EventLogger provides structured logging for dispatcher events. Response
// payloads are logged through RedactResponse so configured fields (avatars)
// never reach the log stream.
type EventLogger struct {
	logger  *Logger
	exclude map[string][]string
}

// NewEventLogger creates an EventLogger with the configured exclusion table.
func NewEventLogger(exclude map[string][]string) *EventLogger {
	if exclude == nil {
		exclude = map[string][]string{}
	}
	return &EventLogger{logger: GlobalLogger, exclude: exclude}
}

// LogInbound logs a decoded inbound event.
func (l *EventLogger) LogInbound(ctx context.Context, event, sid string) {
	l.logger.InfoContext(ctx, "event received",
		slog.String("event", event),
		slog.String("sid", sid),
	)
}

// LogOutbound logs an outbound frame with excluded fields dropped.
func (l *EventLogger) LogOutbound(ctx context.Context, event, target string, payload map[string]any) {
	l.logger.InfoContext(ctx, "event emitted",
		slog.String("event", event),
		slog.String("target", target),
		slog.Any("data", l.RedactResponse(payload)),
	)
}

// LogError logs a handler failure with its classification code.
func (l *EventLogger) LogError(ctx context.Context, event, sid, code string, err error) {
	l.logger.ErrorContext(ctx, "event failed",
		slog.String("event", event),
		slog.String("sid", sid),
		slog.String("code", code),
		slog.String("error", err.Error()),
	)
}

// RedactResponse returns a copy of payload with the exclusion table applied.
// For each configured field, the named nested keys are dropped from every
// element when the field holds a list, or from the field itself when it holds
// an object. The wire payload is never altered, only the logged copy.
func (l *EventLogger) RedactResponse(payload map[string]any) map[string]any {
	if len(l.exclude) == 0 || payload == nil {
		return payload
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		drop, ok := l.exclude[k]
		if !ok {
			out[k] = v
			continue
		}
		switch val := v.(type) {
		case []any:
			redacted := make([]any, 0, len(val))
			for _, item := range val {
				if m, ok := item.(map[string]any); ok {
					redacted = append(redacted, dropKeys(m, drop))
				} else {
					redacted = append(redacted, item)
				}
			}
			out[k] = redacted
		case []map[string]any:
			redacted := make([]any, 0, len(val))
			for _, m := range val {
				redacted = append(redacted, dropKeys(m, drop))
			}
			out[k] = redacted
		case map[string]any:
			out[k] = dropKeys(val, drop)
		default:
			out[k] = v
		}
	}
	return out
}

func dropKeys(m map[string]any, keys []string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	for _, key := range keys {
		delete(out, key)
	}
	return out
}
