// Package connectortest provides a configurable in-process connector for tests.
package connectortest

import (
	"context"
	"sync"
	"sync/atomic"

	"databreaker/internal/broker/connectors"
)

// Stub is a connector whose behavior is set by function fields. Nil
// functions fall back to empty successes.
type Stub struct {
	IDValue        string
	NameValue      string
	Caps           connectors.Capabilities
	Home           string
	Countries      []string
	ScanFn         func(ctx context.Context, q connectors.PersonQuery) ([]connectors.FoundRecord, error)
	DeleteFn       func(ctx context.Context, q connectors.PersonQuery, records []connectors.FoundRecord) (connectors.DeletionSubmission, error)
	StatusFn       func(ctx context.Context, ref string) (connectors.DeletionStatusCheck, error)
	ScanCalls      atomic.Int32
	DeleteCalls    atomic.Int32
	StatusCalls    atomic.Int32
	mu             sync.Mutex
	deletedRecords [][]connectors.FoundRecord
}

// New returns a stub with all capabilities enabled.
func New(id string) *Stub {
	return &Stub{
		IDValue:   id,
		NameValue: id,
		Caps:      connectors.Capabilities{CanScan: true, CanDelete: true, CanCheckStatus: true},
	}
}

// Factory wraps the stub for connectors.Build.
func (s *Stub) Factory() connectors.Factory {
	return func() (connectors.Connector, error) { return s, nil }
}

func (s *Stub) ID() string                           { return s.IDValue }
func (s *Stub) Name() string                         { return s.NameValue }
func (s *Stub) Capabilities() connectors.Capabilities { return s.Caps }
func (s *Stub) HomeCountry() string                  { return s.Home }
func (s *Stub) DataCountries() []string              { return s.Countries }

func (s *Stub) Scan(ctx context.Context, q connectors.PersonQuery) ([]connectors.FoundRecord, error) {
	s.ScanCalls.Add(1)
	if s.ScanFn == nil {
		return []connectors.FoundRecord{}, nil
	}
	return s.ScanFn(ctx, q)
}

func (s *Stub) RequestDeletion(ctx context.Context, q connectors.PersonQuery, records []connectors.FoundRecord) (connectors.DeletionSubmission, error) {
	s.DeleteCalls.Add(1)
	s.mu.Lock()
	s.deletedRecords = append(s.deletedRecords, records)
	s.mu.Unlock()
	if s.DeleteFn == nil {
		return connectors.DeletionSubmission{ExternalRef: s.IDValue + "-ref"}, nil
	}
	return s.DeleteFn(ctx, q, records)
}

func (s *Stub) CheckDeletionStatus(ctx context.Context, ref string) (connectors.DeletionStatusCheck, error) {
	s.StatusCalls.Add(1)
	if s.StatusFn == nil {
		return connectors.DeletionStatusCheck{Status: "submitted"}, nil
	}
	return s.StatusFn(ctx, ref)
}

// DeletionBatches returns the record slices passed to RequestDeletion, one
// entry per call.
func (s *Stub) DeletionBatches() [][]connectors.FoundRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]connectors.FoundRecord, len(s.deletedRecords))
	copy(out, s.deletedRecords)
	return out
}

// Records is a convenience for building ScanFn results.
func Records(kindValue ...string) []connectors.FoundRecord {
	out := make([]connectors.FoundRecord, 0, len(kindValue)/2)
	for i := 0; i+1 < len(kindValue); i += 2 {
		out = append(out, connectors.FoundRecord{DataType: kindValue[i], DataValue: kindValue[i+1]})
	}
	return out
}

var _ connectors.Connector = (*Stub)(nil)
