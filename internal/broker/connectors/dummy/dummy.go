// Package dummy provides a connector that fabricates plausible results from
// the query itself. It exercises the whole scan/delete/status pipeline
// without touching the network.
package dummy

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"databreaker/internal/broker/connectors"
)

const (
	ID         = "dummy-broker"
	name       = "Dummy Broker"
	profileURL = "https://dummy-broker.example.com/profile/12345"
	refPrefix  = "DUMMY-"
)

type Connector struct{}

// New returns the dummy connector. It never fails; the signature matches
// connectors.Factory.
func New() (connectors.Connector, error) {
	return &Connector{}, nil
}

func (c *Connector) ID() string   { return ID }
func (c *Connector) Name() string { return name }

func (c *Connector) Capabilities() connectors.Capabilities {
	return connectors.Capabilities{CanScan: true, CanDelete: true, CanCheckStatus: true}
}

func (c *Connector) HomeCountry() string     { return "" }
func (c *Connector) DataCountries() []string { return nil }

// Scan echoes the query back as a name and a synthetic address, plus email
// and phone when supplied.
func (c *Connector) Scan(_ context.Context, q connectors.PersonQuery) ([]connectors.FoundRecord, error) {
	city := q.City
	if city == "" {
		city = "Anytown"
	}
	state := q.State
	if state == "" {
		state = "CA"
	}

	records := []connectors.FoundRecord{
		{DataType: connectors.KindName, DataValue: q.FirstName + " " + q.LastName, ProfileURL: profileURL},
		{DataType: connectors.KindAddress, DataValue: fmt.Sprintf("123 Main St, %s, %s", city, state), ProfileURL: profileURL},
	}
	if q.Email != "" {
		records = append(records, connectors.FoundRecord{DataType: connectors.KindEmail, DataValue: q.Email})
	}
	if q.Phone != "" {
		records = append(records, connectors.FoundRecord{DataType: connectors.KindPhone, DataValue: q.Phone})
	}
	return records, nil
}

func (c *Connector) RequestDeletion(_ context.Context, _ connectors.PersonQuery, _ []connectors.FoundRecord) (connectors.DeletionSubmission, error) {
	return connectors.DeletionSubmission{
		ExternalRef: refPrefix + uuid.NewString(),
		Message:     "Deletion request submitted to Dummy Broker",
	}, nil
}

// CheckDeletionStatus always reports in_progress.
func (c *Connector) CheckDeletionStatus(_ context.Context, externalRef string) (connectors.DeletionStatusCheck, error) {
	return connectors.DeletionStatusCheck{
		Status:  "in_progress",
		Message: fmt.Sprintf("Request %s is being processed", externalRef),
	}, nil
}

var _ connectors.Connector = (*Connector)(nil)
