package connectors

import (
	"context"
	"strings"
	"time"

	pstrings "databreaker/pkg/platform/strings"
)

// Capabilities declares which operations a connector supports.
// Orchestrators consult it before every call.
type Capabilities struct {
	CanScan        bool `json:"can_scan"`
	CanDelete      bool `json:"can_delete"`
	CanCheckStatus bool `json:"can_check_status"`
}

// PersonQuery identifies the person being searched for. Only first and last
// name are always present; connectors that need more fail with
// ErrorMissingField.
type PersonQuery struct {
	FirstName string `json:"first_name" validate:"required,notblank"`
	LastName  string `json:"last_name" validate:"required,notblank"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string `json:"phone,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty" validate:"omitempty,len=2"`
	Country   string `json:"country,omitempty" validate:"omitempty,iso3166_1_alpha2"`
}

// ScanOnlyFields names the PersonQuery fields required for a scan but
// optional when the query is forwarded with a deletion request.
var ScanOnlyFields = []string{"FirstName", "LastName"}

// Normalize trims every field and upper-cases state and country codes.
func (q *PersonQuery) Normalize() {
	pstrings.TrimAll(&q.FirstName, &q.LastName, &q.Email, &q.Phone, &q.City, &q.State, &q.Country)
	q.State = strings.ToUpper(q.State)
	q.Country = strings.ToUpper(q.Country)
}

// FullName joins first and last name.
func (q PersonQuery) FullName() string {
	return strings.TrimSpace(q.FirstName + " " + q.LastName)
}

// Record kinds produced by the built-in connectors. Connectors may emit others.
const (
	KindName      = "name"
	KindAge       = "age"
	KindAddress   = "address"
	KindEmail     = "email"
	KindPhone     = "phone"
	KindRelatives = "relatives"
)

// FoundRecord is a fact discovered by a scan, not yet persisted.
type FoundRecord struct {
	DataType   string         `json:"data_type"`
	DataValue  string         `json:"data_value"`
	ProfileURL string         `json:"profile_url,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// DeletionSubmission is the broker's acknowledgement of a deletion request.
type DeletionSubmission struct {
	ExternalRef string
	Message     string
}

// DeletionStatusCheck is the broker's current view of a submitted request.
// Status is the raw string the broker reported.
type DeletionStatusCheck struct {
	Status      string
	CompletedAt *time.Time
	Message     string
}

// Connector is the contract every broker implementation satisfies.
//
// Scan returns an empty slice, not an error, when nothing is found.
// RequestDeletion and CheckDeletionStatus must fail with
// ErrorUnsupportedCapability when the matching capability is false.
type Connector interface {
	ID() string
	Name() string
	Capabilities() Capabilities

	// HomeCountry is the ISO 3166-1 alpha-2 code of the broker's seat, or "".
	HomeCountry() string
	// DataCountries lists the countries the broker holds data about.
	// Empty means unrestricted.
	DataCountries() []string

	Scan(ctx context.Context, query PersonQuery) ([]FoundRecord, error)
	RequestDeletion(ctx context.Context, query PersonQuery, records []FoundRecord) (DeletionSubmission, error)
	CheckDeletionStatus(ctx context.Context, externalRef string) (DeletionStatusCheck, error)
}

// CoversCountry reports whether c holds data about country.
// An empty country or empty DataCountries always matches.
func CoversCountry(c Connector, country string) bool {
	if country == "" {
		return true
	}
	dc := c.DataCountries()
	if len(dc) == 0 {
		return true
	}
	for _, d := range dc {
		if strings.EqualFold(d, country) {
			return true
		}
	}
	return false
}
