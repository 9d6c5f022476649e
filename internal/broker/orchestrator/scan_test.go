package orchestrator_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	"databreaker/internal/broker/connectors"
	"databreaker/internal/broker/connectors/beenverified"
	"databreaker/internal/broker/connectors/connectortest"
	"databreaker/internal/broker/connectors/dummy"
	"databreaker/internal/broker/orchestrator"
)

func (s *OrchestratorSuite) TestScan_RepeatedScansDoNotDuplicate() {
	stub := connectortest.New("acme")
	stub.ScanFn = func(context.Context, connectors.PersonQuery) ([]connectors.FoundRecord, error) {
		return []connectors.FoundRecord{
			{DataType: connectors.KindName, DataValue: "Jane Doe", ProfileURL: "https://acme.example/jane"},
			{DataType: connectors.KindEmail, DataValue: "jane@example.com", Metadata: map[string]any{"source": "profile"}},
		}, nil
	}
	o := s.newOrchestrator(orchestrator.Config{}, stub)

	first, err := o.Scan(s.ctx, orchestrator.ScanRequest{Query: s.query()})
	s.Require().NoError(err)
	s.Equal(2, first.RecordsFound)
	s.Equal(2, first.NewRecords)

	before, err := s.store.ListPersonalRecords(s.ctx, "acme")
	s.Require().NoError(err)

	second, err := o.Scan(s.ctx, orchestrator.ScanRequest{Query: s.query()})
	s.Require().NoError(err)
	s.Equal(2, second.RecordsFound)
	s.Zero(second.NewRecords)

	after, err := s.store.ListPersonalRecords(s.ctx, "acme")
	s.Require().NoError(err)
	s.Require().Len(after, 2)
	for i := range after {
		s.Equal(before[i].ID, after[i].ID)
		s.True(after[i].FoundAt.After(before[i].FoundAt), "found_at refreshed on rediscovery")
	}

	email := after[0]
	s.Equal(connectors.KindEmail, email.DataType)
	s.Require().NotNil(email.RawJSON)
	s.JSONEq(`{"source":"profile"}`, *email.RawJSON)
	s.Require().NotNil(after[1].ProfileURL)
	s.Equal("https://acme.example/jane", *after[1].ProfileURL)
}

func (s *OrchestratorSuite) TestScan_AutoCreatesBroker() {
	stub := connectortest.New("acme")
	stub.NameValue = "Acme People Search"
	stub.Home = "US"
	stub.Countries = []string{"US", "CA"}
	o := s.newOrchestrator(orchestrator.Config{}, stub)

	res, err := o.Scan(s.ctx, orchestrator.ScanRequest{Query: s.query()})
	s.Require().NoError(err)
	s.Equal([]string{"acme"}, res.Scanned)
	s.Zero(res.RecordsFound)

	b, err := s.store.GetBroker(s.ctx, "acme")
	s.Require().NoError(err)
	s.Equal("Acme People Search", b.Name)
	s.Require().NotNil(b.Connector)
	s.Equal("acme", *b.Connector)
	s.Require().NotNil(b.Country)
	s.Equal("US", *b.Country)
	s.Equal([]string{"US", "CA"}, b.DataCountries)
	s.Nil(b.Website)
}

func (s *OrchestratorSuite) TestScan_AllowListWithMissingState() {
	var hits int
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer site.Close()

	bv, err := beenverified.NewWithConfig(beenverified.Config{SearchURL: site.URL, FallbackURL: site.URL})
	s.Require().NoError(err)
	dm, err := dummy.New()
	s.Require().NoError(err)
	o := s.newOrchestrator(orchestrator.Config{}, bv, dm)

	q := s.query()
	q.State = ""
	res, err := o.Scan(s.ctx, orchestrator.ScanRequest{Query: q, Brokers: []string{beenverified.ID}})
	s.Require().NoError(err)

	s.Equal([]string{beenverified.ID}, res.Scanned)
	s.Require().Contains(res.Errors, beenverified.ID)
	bvErr := res.Errors[beenverified.ID]
	s.Equal(connectors.ErrorMissingField, connectors.GetCategory(bvErr))
	s.Contains(bvErr.Error(), "state")
	s.Zero(res.RecordsFound)
	s.Zero(hits)

	_, err = s.store.GetBroker(s.ctx, dummy.ID)
	s.Error(err, "dummy connector was not in the allow-list")
}

func requiresState(id string) *connectortest.Stub {
	stub := connectortest.New(id)
	stub.ScanFn = func(_ context.Context, q connectors.PersonQuery) ([]connectors.FoundRecord, error) {
		if q.State == "" {
			return nil, connectors.MissingField(id, "state is required")
		}
		return []connectors.FoundRecord{{DataType: connectors.KindAddress, DataValue: q.City + ", " + q.State}}, nil
	}
	return stub
}

func (s *OrchestratorSuite) TestScan_AllowListExcludesStateConnector() {
	omitted := requiresState("people-finder")
	allowed := requiresState("address-search")
	o := s.newOrchestrator(orchestrator.Config{}, omitted, allowed)

	q := connectors.PersonQuery{FirstName: "Jane", LastName: "Smith", State: "NY"}
	res, err := o.Scan(s.ctx, orchestrator.ScanRequest{Query: q, Brokers: []string{"address-search"}})
	s.Require().NoError(err)
	s.Equal([]string{"address-search"}, res.Scanned)
	s.Empty(res.Errors)
	s.Equal(1, res.RecordsFound)
	s.Zero(omitted.ScanCalls.Load())

	q.State = ""
	res, err = o.Scan(s.ctx, orchestrator.ScanRequest{Query: q, Brokers: []string{"address-search"}})
	s.Require().NoError(err)
	s.Require().Contains(res.Errors, "address-search")
	s.True(connectors.IsCategory(res.Errors["address-search"], connectors.ErrorMissingField))
	s.Contains(res.Errors["address-search"].Error(), "state")
	s.Zero(omitted.ScanCalls.Load())
	s.EqualValues(2, allowed.ScanCalls.Load())
}

func (s *OrchestratorSuite) TestScan_CountryFilter() {
	us := connectortest.New("us-only")
	us.Countries = []string{"US"}
	de := connectortest.New("de-broker")
	de.Countries = []string{"de", "at"}
	global := connectortest.New("global")
	o := s.newOrchestrator(orchestrator.Config{}, us, de, global)

	res, err := o.Scan(s.ctx, orchestrator.ScanRequest{Query: s.query(), Country: "DE"})
	s.Require().NoError(err)

	s.Equal([]string{"de-broker", "global"}, res.Scanned)
	s.Zero(us.ScanCalls.Load())
	s.EqualValues(1, de.ScanCalls.Load())
	s.EqualValues(1, global.ScanCalls.Load())
}

func (s *OrchestratorSuite) TestScan_CountryDefaultsToQuery() {
	de := connectortest.New("de-broker")
	de.Countries = []string{"DE"}
	o := s.newOrchestrator(orchestrator.Config{}, de)

	res, err := o.Scan(s.ctx, orchestrator.ScanRequest{Query: s.query()})
	s.Require().NoError(err)
	s.True(res.NoCandidates)
	s.Empty(res.Scanned)
	s.Zero(de.ScanCalls.Load())
}

func (s *OrchestratorSuite) TestScan_UnknownAllowListEntries() {
	o := s.newOrchestrator(orchestrator.Config{}, connectortest.New("acme"))

	res, err := o.Scan(s.ctx, orchestrator.ScanRequest{Query: s.query(), Brokers: []string{"nope", " nope "}})
	s.Require().NoError(err)
	s.True(res.NoCandidates)
	s.Equal([]string{"nope"}, res.Unknown)
}

func (s *OrchestratorSuite) TestScan_SkipsConnectorsWithoutScan() {
	deleteOnly := connectortest.New("delete-only")
	deleteOnly.Caps = connectors.Capabilities{CanDelete: true}
	o := s.newOrchestrator(orchestrator.Config{}, deleteOnly, connectortest.New("acme"))

	res, err := o.Scan(s.ctx, orchestrator.ScanRequest{Query: s.query()})
	s.Require().NoError(err)
	s.False(res.NoCandidates)
	s.Equal([]string{"delete-only"}, res.Skipped)
	s.Equal([]string{"acme"}, res.Scanned)
	s.Zero(deleteOnly.ScanCalls.Load())

	_, err = s.store.GetBroker(s.ctx, "delete-only")
	s.Error(err)
}

func (s *OrchestratorSuite) TestScan_ConnectorFailureDoesNotAbort() {
	broken := connectortest.New("broken")
	broken.ScanFn = func(context.Context, connectors.PersonQuery) ([]connectors.FoundRecord, error) {
		return nil, connectors.NewError(connectors.ErrorTransport, "broken", "connection refused", nil)
	}
	healthy := connectortest.New("healthy")
	healthy.ScanFn = func(context.Context, connectors.PersonQuery) ([]connectors.FoundRecord, error) {
		return connectortest.Records(connectors.KindPhone, "555-0100"), nil
	}
	o := s.newOrchestrator(orchestrator.Config{}, broken, healthy)

	res, err := o.Scan(s.ctx, orchestrator.ScanRequest{Query: s.query()})
	s.Require().NoError(err)
	s.Equal(1, res.Failed())
	s.True(connectors.IsTransport(res.Errors["broken"]))
	s.Equal(1, res.RecordsFound)
	s.Equal(map[string]int{"healthy": 1}, res.PerConnector)
}

func (s *OrchestratorSuite) TestScan_WithDummyConnector() {
	dm, err := dummy.New()
	s.Require().NoError(err)
	o := s.newOrchestrator(orchestrator.Config{}, dm)

	res, err := o.Scan(s.ctx, orchestrator.ScanRequest{Query: s.query()})
	s.Require().NoError(err)
	s.Positive(res.RecordsFound)
	s.Equal(res.RecordsFound, res.NewRecords)

	recs, err := s.store.ListPersonalRecords(s.ctx, dummy.ID)
	s.Require().NoError(err)
	s.Len(recs, res.RecordsFound)
}
