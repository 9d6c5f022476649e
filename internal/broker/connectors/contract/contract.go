// Package contract holds a reusable test suite every connector should pass.
package contract

import (
	"context"
	"testing"

	"databreaker/internal/broker/connectors"
)

// ScanCase is a query the connector is expected to answer.
type ScanCase struct {
	Name  string
	Query connectors.PersonQuery
	// WantErr is the expected category, or "" for success.
	WantErr connectors.ErrorCategory
	// Validate runs extra checks on a successful result.
	Validate func(t *testing.T, records []connectors.FoundRecord)
}

// Suite validates one connector against the contract.
type Suite struct {
	ConnectorID string
	Connector   connectors.Connector
	ScanCases   []ScanCase
}

// Run executes the metadata, self-guard and scan checks.
func (s *Suite) Run(t *testing.T) {
	t.Helper()
	c := s.Connector

	t.Run("metadata", func(t *testing.T) {
		if c.ID() != s.ConnectorID {
			t.Errorf("expected connector ID %s, got %s", s.ConnectorID, c.ID())
		}
		if c.Name() == "" {
			t.Error("connector name is empty")
		}
		if home := c.HomeCountry(); home != "" && len(home) != 2 {
			t.Errorf("home country %q is not an alpha-2 code", home)
		}
		for _, dc := range c.DataCountries() {
			if len(dc) != 2 {
				t.Errorf("data country %q is not an alpha-2 code", dc)
			}
		}
	})

	t.Run("capability self-guard", func(t *testing.T) {
		caps := c.Capabilities()
		ctx := context.Background()
		if !caps.CanDelete {
			_, err := c.RequestDeletion(ctx, connectors.PersonQuery{FirstName: "A", LastName: "B"}, nil)
			if !connectors.IsCategory(err, connectors.ErrorUnsupportedCapability) {
				t.Errorf("RequestDeletion without capability: expected unsupported_capability, got %v", err)
			}
		}
		if !caps.CanCheckStatus {
			_, err := c.CheckDeletionStatus(ctx, "ref")
			if !connectors.IsCategory(err, connectors.ErrorUnsupportedCapability) {
				t.Errorf("CheckDeletionStatus without capability: expected unsupported_capability, got %v", err)
			}
		}
	})

	for _, tc := range s.ScanCases {
		t.Run("scan/"+tc.Name, func(t *testing.T) {
			records, err := c.Scan(context.Background(), tc.Query)
			if tc.WantErr != "" {
				if got := connectors.GetCategory(err); got != tc.WantErr {
					t.Fatalf("expected error category %s, got %s (%v)", tc.WantErr, got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("scan failed: %v", err)
			}
			if records == nil {
				t.Fatal("scan returned nil slice; empty results must be an empty slice")
			}
			for i, r := range records {
				if r.DataType == "" || r.DataValue == "" {
					t.Errorf("record %d has empty kind or value: %+v", i, r)
				}
			}
			if tc.Validate != nil {
				tc.Validate(t, records)
			}
		})
	}
}
