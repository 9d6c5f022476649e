// Package connectors defines the broker connector contract, its error
// taxonomy, and the registry the orchestrators dispatch through.
package connectors

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Factory constructs a connector. A returned error removes the connector
// from the registry without failing startup.
type Factory func() (Connector, error)

// Registry maps connector IDs to instances. It is populated once at startup
// and only read afterwards.
type Registry struct {
	connectors map[string]Connector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		connectors: make(map[string]Connector),
	}
}

// Register adds a connector. Registering an ID twice is an error and leaves
// the first registration in place.
func (r *Registry) Register(c Connector) error {
	if _, exists := r.connectors[c.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateConnector, c.ID())
	}
	r.connectors[c.ID()] = c
	return nil
}

// Get returns the connector registered under id.
func (r *Registry) Get(id string) (Connector, bool) {
	c, ok := r.connectors[id]
	return c, ok
}

// All returns every connector ordered by ID.
func (r *Registry) All() []Connector {
	result := make([]Connector, 0, len(r.connectors))
	for _, c := range r.connectors {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}

// IDs returns the registered connector IDs in order.
func (r *Registry) IDs() []string {
	all := r.All()
	ids := make([]string, len(all))
	for i, c := range all {
		ids[i] = c.ID()
	}
	return ids
}

// Len is the number of registered connectors.
func (r *Registry) Len() int {
	return len(r.connectors)
}

// Build runs every factory and registers the results. Factory failures and
// duplicate IDs are logged and skipped.
func Build(logger *zap.Logger, factories ...Factory) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.With(zap.String("component", "connector-registry"))

	r := NewRegistry()
	for _, factory := range factories {
		c, err := factory()
		if err != nil {
			log.Warn("connector initialization failed, skipping", zap.Error(err))
			continue
		}
		if err := r.Register(c); err != nil {
			log.Warn("duplicate connector, keeping first registration",
				zap.String("connector_id", c.ID()), zap.Error(err))
			continue
		}
		log.Debug("registered connector",
			zap.String("connector_id", c.ID()),
			zap.String("name", c.Name()))
	}
	return r
}
