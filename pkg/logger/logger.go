// Package logger provides structured logging capabilities for the Rampart
// risk mitigation service. It supports multiple log levels, JSON formatting,
// and integration with OpenTelemetry for distributed tracing. Session keys,
// API secrets and raw request text are never written to any log sink.
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/rampartlabs/rampart/pkg/constants"
)

// ================================================================================
// Logger Interface
// ================================================================================

// Logger defines the interface for structured logging
type Logger interface {
	// Debug logs a debug message
	Debug(ctx context.Context, message string, fields ...Field)

	// Info logs an informational message
	Info(ctx context.Context, message string, fields ...Field)

	// Warn logs a warning message
	Warn(ctx context.Context, message string, fields ...Field)

	// Error logs an error message
	Error(ctx context.Context, message string, err error, fields ...Field)

	// Fatal logs a fatal message and exits the application
	Fatal(ctx context.Context, message string, err error, fields ...Field)

	// WithFields creates a new logger with additional fields
	WithFields(fields ...Field) Logger

	// WithComponent creates a new logger for a specific component
	WithComponent(component string) Logger

	// SetLevel sets the logging level
	SetLevel(level constants.LogLevel)

	// GetLevel returns the current logging level
	GetLevel() constants.LogLevel
}

// ================================================================================
// Field Type for Structured Logging
// ================================================================================

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// F is a shorthand constructor for Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// String creates a string field
func String(key string, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Float64 creates a float64 field
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Error creates an error field
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Duration creates a duration field
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Time creates a time field
func Time(key string, value time.Time) Field {
	return Field{Key: key, Value: value.Format(time.RFC3339)}
}

// Any creates a field with any type
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// ================================================================================
// Logger Implementation
// ================================================================================

// logger is the internal implementation of the Logger interface
type logger struct {
	level      constants.LogLevel
	output     io.Writer
	component  string
	baseFields []Field
}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Component string                 `json:"component,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
	SpanID    string                 `json:"span_id,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
}

// levelWeight orders log levels for threshold checks
var levelWeight = map[constants.LogLevel]int{
	constants.LogLevelDebug: 0,
	constants.LogLevelInfo:  1,
	constants.LogLevelWarn:  2,
	constants.LogLevelError: 3,
}

func weightOf(level constants.LogLevel) int {
	if w, ok := levelWeight[level]; ok {
		return w
	}
	return 1
}

// ================================================================================
// Logger Constructor
// ================================================================================

// NewLogger creates a new Logger instance
func NewLogger(level constants.LogLevel, output io.Writer) Logger {
	if output == nil {
		output = os.Stdout
	}

	return &logger{
		level:      level,
		output:     output,
		baseFields: make([]Field, 0),
	}
}

// NewDefaultLogger creates a logger with default settings (stdout, Info level)
func NewDefaultLogger() Logger {
	return NewLogger(constants.LogLevelInfo, os.Stdout)
}

// ================================================================================
// Core Logging Methods
// ================================================================================

// Debug logs a debug message
func (l *logger) Debug(ctx context.Context, message string, fields ...Field) {
	if weightOf(l.level) > weightOf(constants.LogLevelDebug) {
		return
	}
	l.log(ctx, constants.LogLevelDebug, message, fields...)
}

// Info logs an informational message
func (l *logger) Info(ctx context.Context, message string, fields ...Field) {
	if weightOf(l.level) > weightOf(constants.LogLevelInfo) {
		return
	}
	l.log(ctx, constants.LogLevelInfo, message, fields...)
}

// Warn logs a warning message
func (l *logger) Warn(ctx context.Context, message string, fields ...Field) {
	if weightOf(l.level) > weightOf(constants.LogLevelWarn) {
		return
	}
	l.log(ctx, constants.LogLevelWarn, message, fields...)
}

// Error logs an error message
func (l *logger) Error(ctx context.Context, message string, err error, fields ...Field) {
	if err != nil {
		fields = append(fields, Error(err))
	}
	l.log(ctx, constants.LogLevelError, message, fields...)
}

// Fatal logs a fatal message and exits
func (l *logger) Fatal(ctx context.Context, message string, err error, fields ...Field) {
	if err != nil {
		fields = append(fields, Error(err))
	}
	l.log(ctx, constants.LogLevelError, message, fields...)
	os.Exit(1)
}

// ================================================================================
// Logger Configuration Methods
// ================================================================================

// WithFields creates a new logger with additional base fields
func (l *logger) WithFields(fields ...Field) Logger {
	newLogger := &logger{
		level:      l.level,
		output:     l.output,
		component:  l.component,
		baseFields: make([]Field, len(l.baseFields)+len(fields)),
	}

	copy(newLogger.baseFields, l.baseFields)
	copy(newLogger.baseFields[len(l.baseFields):], fields)

	return newLogger
}

// WithComponent creates a new logger with a component name
func (l *logger) WithComponent(component string) Logger {
	newLogger := &logger{
		level:      l.level,
		output:     l.output,
		component:  component,
		baseFields: make([]Field, len(l.baseFields)),
	}

	copy(newLogger.baseFields, l.baseFields)

	return newLogger
}

// SetLevel sets the logging level
func (l *logger) SetLevel(level constants.LogLevel) {
	l.level = level
}

// GetLevel returns the current logging level
func (l *logger) GetLevel() constants.LogLevel {
	return l.level
}

// ================================================================================
// Internal Logging Implementation
// ================================================================================

// log is the internal method that performs the actual logging
func (l *logger) log(ctx context.Context, level constants.LogLevel, message string, fields ...Field) {
	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     strings.ToUpper(string(level)),
		Component: l.component,
		Message:   message,
		Fields:    make(map[string]interface{}),
	}

	// Extract trace context from OpenTelemetry
	if ctx != nil {
		span := trace.SpanFromContext(ctx)
		if span.SpanContext().IsValid() {
			entry.TraceID = span.SpanContext().TraceID().String()
			entry.SpanID = span.SpanContext().SpanID().String()
		}

		// Extract context values
		if requestID := ctx.Value(constants.ContextKeyRequestID); requestID != nil {
			entry.Fields["request_id"] = requestID
		}
		if tenantID := ctx.Value(constants.ContextKeyTenantID); tenantID != nil {
			entry.Fields["tenant_id"] = tenantID
		}
		if sessionID := ctx.Value(constants.ContextKeySessionID); sessionID != nil {
			entry.Fields["session_id"] = sessionID
		}
	}

	// Add caller information for error logs
	if weightOf(level) >= weightOf(constants.LogLevelError) {
		entry.Caller = getCaller(3)
	}

	// Merge base fields
	for _, field := range l.baseFields {
		entry.Fields[field.Key] = sanitizeValue(field.Key, field.Value)
	}

	// Merge provided fields
	for _, field := range fields {
		entry.Fields[field.Key] = sanitizeValue(field.Key, field.Value)
	}

	// Marshal to JSON
	jsonData, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		// Fallback to plain text if JSON marshaling fails
		fmt.Fprintf(l.output, "[%s] %s: %s (marshal error: %v)\n",
			entry.Timestamp, entry.Level, message, marshalErr)
		return
	}

	// Write to output
	fmt.Fprintln(l.output, string(jsonData))
}

// ================================================================================
// Utility Functions
// ================================================================================

// getCaller returns the file and line number of the caller
func getCaller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}

	// Extract just the filename (not the full path)
	parts := strings.Split(file, "/")
	if len(parts) > 0 {
		file = parts[len(parts)-1]
	}

	return fmt.Sprintf("%s:%d", file, line)
}

// Sanitize masks the value when the key names a credential or key material.
// Alternative log sinks apply the same mask list before writing a field.
func Sanitize(key string, value interface{}) interface{} {
	return sanitizeValue(key, value)
}

// sanitizeValue sanitizes sensitive field values
func sanitizeValue(key string, value interface{}) interface{} {
	// List of sensitive field keys that must be masked
	sensitiveKeys := []string{
		"password",
		"secret",
		"token",
		"api_key",
		"api_secret",
		"authorization",
		"session_key",
		"key_material",
		"private_key",
	}

	// Check if the key is sensitive
	keyLower := strings.ToLower(key)
	for _, sensitiveKey := range sensitiveKeys {
		if strings.Contains(keyLower, sensitiveKey) {
			// Mask sensitive values
			if str, ok := value.(string); ok && len(str) > 0 {
				return maskString(str)
			}
			return "***REDACTED***"
		}
	}

	return value
}

// maskString partially masks a string value
func maskString(s string) string {
	if len(s) <= 8 {
		return "***"
	}

	// Show first 4 and last 4 characters
	return s[:4] + "***" + s[len(s)-4:]
}

// ================================================================================
// Audit Logging
// ================================================================================

// AuditLogger is a specialized logger for audit events
type AuditLogger struct {
	logger Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger.WithComponent("audit"),
	}
}

// LogAuditEvent logs an audit event
func (a *AuditLogger) LogAuditEvent(ctx context.Context, eventType constants.AuditEventType, fields ...Field) {
	auditFields := append([]Field{
		String("event_type", string(eventType)),
		String("event_category", "audit"),
		Time("event_timestamp", time.Now().UTC()),
	}, fields...)

	a.logger.Info(ctx, "Audit event", auditFields...)
}

// LogAnalysis logs a completed analysis event
func (a *AuditLogger) LogAnalysis(ctx context.Context, tenantID, riskLevel, disposition string, riskScore float64) {
	a.LogAuditEvent(ctx, constants.EventTypeAnalysis,
		String("tenant_id", tenantID),
		String("risk_level", riskLevel),
		String("disposition", disposition),
		Float64("risk_score", riskScore),
	)
}

// LogQuotaRejection logs an admission denied by the quota tracker
func (a *AuditLogger) LogQuotaRejection(ctx context.Context, tenantID, windowKind string) {
	a.LogAuditEvent(ctx, constants.EventTypeQuotaRejection,
		String("tenant_id", tenantID),
		String("window_kind", windowKind),
	)
}

// LogAuthenticationFailure logs an authentication failure event
func (a *AuditLogger) LogAuthenticationFailure(ctx context.Context, tenantID, reason string) {
	a.LogAuditEvent(ctx, constants.EventTypeAuthFailure,
		String("tenant_id", tenantID),
		String("failure_reason", reason),
	)
}

// ================================================================================
// Performance Logging
// ================================================================================

// PerformanceLogger tracks operation performance
type PerformanceLogger struct {
	logger Logger
}

// NewPerformanceLogger creates a new performance logger
func NewPerformanceLogger(logger Logger) *PerformanceLogger {
	return &PerformanceLogger{
		logger: logger.WithComponent("performance"),
	}
}

// LogOperationDuration logs the duration of an operation
func (p *PerformanceLogger) LogOperationDuration(ctx context.Context, operation string, duration time.Duration, fields ...Field) {
	perfFields := append([]Field{
		String("operation", operation),
		Duration("duration", duration),
		Int64("duration_ms", duration.Milliseconds()),
	}, fields...)

	// Log as warning if operation is slow
	if duration > 1*time.Second {
		p.logger.Warn(ctx, "Slow operation detected", perfFields...)
	} else {
		p.logger.Debug(ctx, "Operation completed", perfFields...)
	}
}

// StartOperation creates a function to track operation duration
func (p *PerformanceLogger) StartOperation(ctx context.Context, operation string) func(...Field) {
	start := time.Now()

	return func(fields ...Field) {
		duration := time.Since(start)
		p.LogOperationDuration(ctx, operation, duration, fields...)
	}
}

