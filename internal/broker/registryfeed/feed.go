// Package registryfeed syncs broker metadata from the published registry
// feed into the store.
package registryfeed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"databreaker/internal/broker/connectors/adapters"
	"databreaker/internal/broker/models"
	"databreaker/internal/broker/store"
)

const (
	// UserAgent identifies the tool to the feed host.
	UserAgent = "data-breaker"
	sourceID  = "registry"
)

// Entry is one broker in the feed. Only id and name are required.
type Entry struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Website       *string  `json:"website"`
	Description   *string  `json:"description"`
	Category      *string  `json:"category"`
	Connector     *string  `json:"connector"`
	Country       *string  `json:"country"`
	DataCountries []string `json:"data_countries"`
}

// Config configures a Syncer.
type Config struct {
	URL        string
	HTTPClient adapters.HTTPDoer
	Timeout    time.Duration
	Logger     *zap.Logger
	Now        func() time.Time
}

// Syncer downloads the feed and upserts it.
type Syncer struct {
	http   *adapters.HTTPClient
	url    string
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

// SyncResult reports one sync.
type SyncResult struct {
	Synced    int
	Skipped   int
	FetchedAt time.Time
}

// Info describes the local copy of the registry.
type Info struct {
	// LastFetchedAt is nil when the registry was never synced.
	LastFetchedAt *time.Time
	Brokers       int
}

func New(st store.Store, cfg Config) *Syncer {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Syncer{
		http: adapters.NewHTTPClient(adapters.HTTPClientConfig{
			ConnectorID: sourceID,
			Timeout:     cfg.Timeout,
			UserAgent:   UserAgent,
			HTTPClient:  cfg.HTTPClient,
		}),
		url:    cfg.URL,
		store:  st,
		logger: cfg.Logger.With(zap.String("component", "registryfeed")),
		now:    cfg.Now,
	}
}

// Fetch downloads and decodes the feed without touching the store.
func (s *Syncer) Fetch(ctx context.Context) ([]Entry, error) {
	resp, err := s.http.Get(ctx, s.url, nil, "application/json")
	if err != nil {
		return nil, fmt.Errorf("fetch registry: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(resp.Body, &entries); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	return entries, nil
}

// Sync fetches the feed and upserts every broker. Fields absent from the
// feed never clear stored values. The fetch time is recorded in metadata.
func (s *Syncer) Sync(ctx context.Context) (*SyncResult, error) {
	entries, err := s.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := &SyncResult{FetchedAt: now}
	for _, e := range entries {
		b, ok := e.toBroker(now)
		if !ok {
			s.logger.Warn("skipping registry entry without id or name", zap.String("id", e.ID))
			result.Skipped++
			continue
		}
		if err := s.store.UpsertBroker(ctx, b); err != nil {
			return nil, fmt.Errorf("upsert broker %s: %w", b.ID, err)
		}
		result.Synced++
	}

	if err := s.store.SetMeta(ctx, store.MetaLastFetchedAt, now.Format(time.RFC3339Nano)); err != nil {
		return nil, fmt.Errorf("record registry fetch time: %w", err)
	}
	s.logger.Info("registry synced", zap.Int("brokers", result.Synced), zap.Int("skipped", result.Skipped))
	return result, nil
}

// Info reads the last sync time and the number of stored brokers.
func (s *Syncer) Info(ctx context.Context) (*Info, error) {
	return ReadInfo(ctx, s.store)
}

// ReadInfo is Info without a Syncer, for callers that never fetch.
func ReadInfo(ctx context.Context, st store.Store) (*Info, error) {
	info := &Info{}
	raw, ok, err := st.GetMeta(ctx, store.MetaLastFetchedAt)
	if err != nil {
		return nil, fmt.Errorf("read registry metadata: %w", err)
	}
	if ok {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", store.MetaLastFetchedAt, err)
		}
		info.LastFetchedAt = &ts
	}
	brokers, err := st.ListBrokers(ctx, models.BrokerFilter{})
	if err != nil {
		return nil, fmt.Errorf("list brokers: %w", err)
	}
	info.Brokers = len(brokers)
	return info, nil
}

func (e Entry) toBroker(now time.Time) (*models.Broker, bool) {
	id := strings.TrimSpace(e.ID)
	name := strings.TrimSpace(e.Name)
	if id == "" || name == "" {
		return nil, false
	}
	fetched := now
	b := &models.Broker{
		ID:                id,
		Name:              name,
		Website:           e.Website,
		Description:       e.Description,
		Category:          e.Category,
		Connector:         e.Connector,
		Country:           e.Country,
		RegistryUpdatedAt: &fetched,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if len(e.DataCountries) > 0 {
		b.DataCountries = e.DataCountries
	}
	return b, true
}
