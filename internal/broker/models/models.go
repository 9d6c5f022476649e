// Package models holds the persisted entities of the broker removal engine.
package models

import (
	"strings"
	"time"
)

// Broker is a data broker known to the local store. Rows come either from the
// registry feed or are auto-created with minimal fields on first scan.
type Broker struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Website           *string    `json:"website,omitempty"`
	Description       *string    `json:"description,omitempty"`
	Category          *string    `json:"category,omitempty"`
	Connector         *string    `json:"connector,omitempty"`
	Country           *string    `json:"country,omitempty"`
	DataCountries     []string   `json:"data_countries,omitempty"`
	RegistryUpdatedAt *time.Time `json:"registry_updated_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// HasDataCountry reports whether the broker declares data for country.
// Matching is case-insensitive.
func (b *Broker) HasDataCountry(country string) bool {
	for _, c := range b.DataCountries {
		if strings.EqualFold(c, country) {
			return true
		}
	}
	return false
}

// PersonalRecord is a deduplicated fact about the person held by a broker.
// (BrokerID, DataType, DataValue) is unique.
type PersonalRecord struct {
	ID         string    `json:"id"`
	BrokerID   string    `json:"broker_id"`
	DataType   string    `json:"data_type"`
	DataValue  string    `json:"data_value"`
	ProfileURL *string   `json:"profile_url,omitempty"`
	RawJSON    *string   `json:"raw_json,omitempty"`
	FoundAt    time.Time `json:"found_at"`
}

// DeletionRequest tracks one deletion attempt against one broker.
type DeletionRequest struct {
	ID               string         `json:"id"`
	BrokerID         string         `json:"broker_id"`
	PersonalRecordID *string        `json:"personal_record_id,omitempty"`
	Status           DeletionStatus `json:"status"`
	SubmittedAt      *time.Time     `json:"submitted_at,omitempty"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`
	ErrorMessage     *string        `json:"error_message,omitempty"`
	ExternalRef      *string        `json:"external_ref,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// HasExternalRef reports whether the request carries a non-empty reference.
func (d *DeletionRequest) HasExternalRef() bool {
	return d.ExternalRef != nil && *d.ExternalRef != ""
}

// BrokerFilter narrows ListBrokers. Empty fields do not filter.
type BrokerFilter struct {
	Category    string
	Country     string
	DataCountry string
}

// StatusCounts is the number of deletion requests per status.
type StatusCounts map[DeletionStatus]int
