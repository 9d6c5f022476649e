// Package store persists brokers, discovered records, deletion requests and
// registry metadata.
//
// Two implementations exist: an in-memory store for tests and ephemeral runs,
// and a SQL store for SQLite and PostgreSQL. Both serialize every logical
// read or write behind one process-wide lock.
package store

import (
	"context"
	"errors"

	"databreaker/internal/broker/models"
)

var (
	// ErrNotFound is returned when a lookup by ID matches nothing.
	ErrNotFound = errors.New("not found")
	// ErrMissingBroker is returned when a row references an unknown broker
	// or personal record.
	ErrMissingBroker = errors.New("referenced broker or record does not exist")
)

// MetaLastFetchedAt records the last successful registry feed sync.
const MetaLastFetchedAt = "last_fetched_at"

// Store is the persistence boundary used by the orchestrators.
type Store interface {
	// UpsertBroker inserts or updates a broker. Nil optional fields never
	// clear values already stored.
	UpsertBroker(ctx context.Context, b *models.Broker) error
	// EnsureBroker creates a minimal broker row if none exists and returns
	// the stored row.
	EnsureBroker(ctx context.Context, b *models.Broker) (*models.Broker, error)
	GetBroker(ctx context.Context, id string) (*models.Broker, error)
	ListBrokers(ctx context.Context, filter models.BrokerFilter) ([]*models.Broker, error)

	// UpsertPersonalRecord inserts the record or, when (broker, kind, value)
	// already exists, refreshes found_at, profile_url and raw_json. rec.ID is
	// set to the stored ID. created reports whether a new row was written.
	UpsertPersonalRecord(ctx context.Context, rec *models.PersonalRecord) (created bool, err error)
	GetPersonalRecord(ctx context.Context, id string) (*models.PersonalRecord, error)
	// ListPersonalRecords returns records for brokerID, or all when empty.
	ListPersonalRecords(ctx context.Context, brokerID string) ([]*models.PersonalRecord, error)

	// CreateDeletionRequests inserts all requests or none.
	CreateDeletionRequests(ctx context.Context, reqs []*models.DeletionRequest) error
	UpdateDeletionRequest(ctx context.Context, req *models.DeletionRequest) error
	// ListDeletionRequests returns requests for brokerID, or all when empty.
	ListDeletionRequests(ctx context.Context, brokerID string) ([]*models.DeletionRequest, error)
	CountDeletionsByStatus(ctx context.Context) (models.StatusCounts, error)

	GetMeta(ctx context.Context, key string) (value string, ok bool, err error)
	SetMeta(ctx context.Context, key, value string) error
}
