package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"databreaker/internal/broker/models"
)

type recordKey struct {
	brokerID, dataType, dataValue string
}

// InMemoryStore keeps everything in maps behind a single RWMutex.
type InMemoryStore struct {
	mu        sync.RWMutex
	brokers   map[string]*models.Broker
	records   map[string]*models.PersonalRecord
	recordIdx map[recordKey]string
	deletions map[string]*models.DeletionRequest
	meta      map[string]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		brokers:   make(map[string]*models.Broker),
		records:   make(map[string]*models.PersonalRecord),
		recordIdx: make(map[recordKey]string),
		deletions: make(map[string]*models.DeletionRequest),
		meta:      make(map[string]string),
	}
}

func (s *InMemoryStore) UpsertBroker(_ context.Context, b *models.Broker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.brokers[b.ID]
	if !ok {
		s.brokers[b.ID] = cloneBroker(b)
		return nil
	}
	merged := cloneBroker(existing)
	mergeBroker(merged, b)
	s.brokers[b.ID] = merged
	return nil
}

func (s *InMemoryStore) EnsureBroker(_ context.Context, b *models.Broker) (*models.Broker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.brokers[b.ID]; ok {
		return cloneBroker(existing), nil
	}
	s.brokers[b.ID] = cloneBroker(b)
	return cloneBroker(b), nil
}

func (s *InMemoryStore) GetBroker(_ context.Context, id string) (*models.Broker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.brokers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBroker(b), nil
}

func (s *InMemoryStore) ListBrokers(_ context.Context, filter models.BrokerFilter) ([]*models.Broker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Broker, 0, len(s.brokers))
	for _, b := range s.brokers {
		if filter.Category != "" && (b.Category == nil || *b.Category != filter.Category) {
			continue
		}
		if filter.Country != "" && (b.Country == nil || !strings.EqualFold(*b.Country, filter.Country)) {
			continue
		}
		if filter.DataCountry != "" && !b.HasDataCountry(filter.DataCountry) {
			continue
		}
		out = append(out, cloneBroker(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *InMemoryStore) UpsertPersonalRecord(_ context.Context, rec *models.PersonalRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.brokers[rec.BrokerID]; !ok {
		return false, ErrMissingBroker
	}
	key := recordKey{rec.BrokerID, rec.DataType, rec.DataValue}
	if id, ok := s.recordIdx[key]; ok {
		existing := s.records[id]
		existing.FoundAt = rec.FoundAt
		existing.ProfileURL = cloneStr(rec.ProfileURL)
		existing.RawJSON = cloneStr(rec.RawJSON)
		rec.ID = id
		return false, nil
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	stored := *rec
	stored.ProfileURL = cloneStr(rec.ProfileURL)
	stored.RawJSON = cloneStr(rec.RawJSON)
	s.records[rec.ID] = &stored
	s.recordIdx[key] = rec.ID
	return true, nil
}

func (s *InMemoryStore) GetPersonalRecord(_ context.Context, id string) (*models.PersonalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *r
	return &c, nil
}

func (s *InMemoryStore) ListPersonalRecords(_ context.Context, brokerID string) ([]*models.PersonalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.PersonalRecord, 0, len(s.records))
	for _, r := range s.records {
		if brokerID != "" && r.BrokerID != brokerID {
			continue
		}
		c := *r
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.BrokerID != b.BrokerID {
			return a.BrokerID < b.BrokerID
		}
		if a.DataType != b.DataType {
			return a.DataType < b.DataType
		}
		return a.DataValue < b.DataValue
	})
	return out, nil
}

func (s *InMemoryStore) CreateDeletionRequests(_ context.Context, reqs []*models.DeletionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range reqs {
		if _, ok := s.brokers[r.BrokerID]; !ok {
			return ErrMissingBroker
		}
		if r.PersonalRecordID != nil {
			if _, ok := s.records[*r.PersonalRecordID]; !ok {
				return ErrMissingBroker
			}
		}
	}
	for _, r := range reqs {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		c := *r
		s.deletions[r.ID] = &c
	}
	return nil
}

func (s *InMemoryStore) UpdateDeletionRequest(_ context.Context, req *models.DeletionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deletions[req.ID]; !ok {
		return ErrNotFound
	}
	c := *req
	s.deletions[req.ID] = &c
	return nil
}

func (s *InMemoryStore) ListDeletionRequests(_ context.Context, brokerID string) ([]*models.DeletionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.DeletionRequest, 0, len(s.deletions))
	for _, d := range s.deletions {
		if brokerID != "" && d.BrokerID != brokerID {
			continue
		}
		c := *d
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *InMemoryStore) CountDeletionsByStatus(_ context.Context) (models.StatusCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(models.StatusCounts)
	for _, d := range s.deletions {
		counts[d.Status]++
	}
	return counts, nil
}

func (s *InMemoryStore) GetMeta(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.meta[key]
	return v, ok, nil
}

func (s *InMemoryStore) SetMeta(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.meta[key] = value
	return nil
}

// mergeBroker overlays the non-nil fields of src onto dst.
func mergeBroker(dst, src *models.Broker) {
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.Website != nil {
		dst.Website = cloneStr(src.Website)
	}
	if src.Description != nil {
		dst.Description = cloneStr(src.Description)
	}
	if src.Category != nil {
		dst.Category = cloneStr(src.Category)
	}
	if src.Connector != nil {
		dst.Connector = cloneStr(src.Connector)
	}
	if src.Country != nil {
		dst.Country = cloneStr(src.Country)
	}
	if src.DataCountries != nil {
		dst.DataCountries = append([]string(nil), src.DataCountries...)
	}
	if src.RegistryUpdatedAt != nil {
		t := *src.RegistryUpdatedAt
		dst.RegistryUpdatedAt = &t
	}
	dst.UpdatedAt = src.UpdatedAt
}

func cloneBroker(b *models.Broker) *models.Broker {
	c := *b
	c.Website = cloneStr(b.Website)
	c.Description = cloneStr(b.Description)
	c.Category = cloneStr(b.Category)
	c.Connector = cloneStr(b.Connector)
	c.Country = cloneStr(b.Country)
	if b.DataCountries != nil {
		c.DataCountries = append([]string(nil), b.DataCountries...)
	}
	if b.RegistryUpdatedAt != nil {
		t := *b.RegistryUpdatedAt
		c.RegistryUpdatedAt = &t
	}
	return &c
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

var _ Store = (*InMemoryStore)(nil)
