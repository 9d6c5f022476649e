// Package tracer provides a small tracing abstraction for the orchestration
// passes so that they do not depend on OpenTelemetry directly.
//
// Implementations:
//   - NoopTracer: default, and for tests
//   - OTelTracer: OpenTelemetry adapter
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Span represents an active trace span. End must be called exactly once.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: int64(value)}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashQuery fingerprints identifying fields so traces and logs can be
// correlated without carrying the person's name.
func HashQuery(parts ...string) string {
	joined := strings.ToLower(strings.Join(parts, "\x00"))
	if strings.Trim(joined, "\x00") == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(hash[:8])
}

// Span names.
const (
	SpanScan          = "broker.scan"
	SpanDelete        = "broker.delete"
	SpanReconcile     = "broker.reconcile"
	SpanConnectorCall = "broker.connector.call"
)

// Attribute keys.
const (
	AttrQueryHash   = "query.hash"
	AttrConnectorID = "connector.id"
	AttrOperation   = "connector.operation"
	AttrCandidates  = "candidates"
	AttrRecords     = "records"
	AttrErrors      = "errors"
)
