package orchestrator_test

import (
	"context"

	"databreaker/internal/broker/connectors"
	"databreaker/internal/broker/connectors/connectortest"
	"databreaker/internal/broker/models"
	"databreaker/internal/broker/orchestrator"
	dErrors "databreaker/pkg/domain-errors"
	fixtures "databreaker/pkg/testutil"
)

func scanning(s *connectortest.Stub, kindValue ...string) *connectortest.Stub {
	s.ScanFn = func(context.Context, connectors.PersonQuery) ([]connectors.FoundRecord, error) {
		return connectortest.Records(kindValue...), nil
	}
	return s
}

func (s *OrchestratorSuite) TestDelete_ByBrokerSharesExternalRef() {
	acme := scanning(connectortest.New("acme"),
		connectors.KindName, "Jane Doe", connectors.KindAge, "42", connectors.KindPhone, "555-0100")
	acme.DeleteFn = func(_ context.Context, _ connectors.PersonQuery, recs []connectors.FoundRecord) (connectors.DeletionSubmission, error) {
		return connectors.DeletionSubmission{ExternalRef: "ACME-1", Message: "queued"}, nil
	}
	other := scanning(connectortest.New("other"), connectors.KindName, "Jane Doe")
	o := s.newOrchestrator(orchestrator.Config{}, acme, other)
	s.seedScan(o)

	res, err := o.RequestDeletions(s.ctx, orchestrator.DeletionRequestInput{
		Query:    s.query(),
		Selector: orchestrator.Selector{BrokerID: "acme"},
	})
	s.Require().NoError(err)
	s.Equal(3, res.Submitted)
	s.Zero(res.Failed)
	s.Equal([]string{"acme"}, res.BrokerIDs())
	s.Equal("ACME-1", res.Brokers["acme"].ExternalRef)

	s.EqualValues(1, acme.DeleteCalls.Load(), "one call per broker partition")
	s.Zero(other.DeleteCalls.Load())
	s.Require().Len(acme.DeletionBatches(), 1)
	s.Len(acme.DeletionBatches()[0], 3)

	rows, err := s.store.ListDeletionRequests(s.ctx, "acme")
	s.Require().NoError(err)
	s.Require().Len(rows, 3)
	recordIDs := make(map[string]bool)
	for _, row := range rows {
		s.Equal(models.StatusSubmitted, row.Status)
		s.Require().NotNil(row.ExternalRef)
		s.Equal("ACME-1", *row.ExternalRef)
		s.Require().NotNil(row.SubmittedAt)
		s.Equal(*rows[0].SubmittedAt, *row.SubmittedAt)
		s.Require().NotNil(row.PersonalRecordID)
		recordIDs[*row.PersonalRecordID] = true
	}
	s.Len(recordIDs, 3)
}

func (s *OrchestratorSuite) TestDelete_PartitionWithoutDeleteCapability() {
	scanOnly := scanning(connectortest.New("scan-only"), connectors.KindName, "Jane Doe", connectors.KindAge, "42")
	scanOnly.Caps = connectors.Capabilities{CanScan: true}
	acme := scanning(connectortest.New("acme"), connectors.KindName, "Jane Doe")
	o := s.newOrchestrator(orchestrator.Config{}, scanOnly, acme)
	s.seedScan(o)

	res, err := o.RequestDeletions(s.ctx, orchestrator.DeletionRequestInput{Selector: orchestrator.Selector{All: true}})
	s.Require().NoError(err)
	s.Equal(1, res.Submitted)
	s.Equal(2, res.Failed)
	s.Equal([]string{"acme", "scan-only"}, res.BrokerIDs())

	outcome := res.Brokers["scan-only"]
	s.False(outcome.Submitted)
	s.Equal(2, outcome.Records)
	s.Equal(connectors.ErrorUnsupportedCapability, connectors.GetCategory(outcome.Err))
	s.Zero(scanOnly.DeleteCalls.Load())

	rows, err := s.store.ListDeletionRequests(s.ctx, "scan-only")
	s.Require().NoError(err)
	s.Empty(rows)
}

func (s *OrchestratorSuite) TestDelete_ConnectorFailureWritesNothing() {
	acme := scanning(connectortest.New("acme"), connectors.KindName, "Jane Doe")
	acme.DeleteFn = func(context.Context, connectors.PersonQuery, []connectors.FoundRecord) (connectors.DeletionSubmission, error) {
		return connectors.DeletionSubmission{}, connectors.NewError(connectors.ErrorTransport, "acme", "opt-out form unavailable", nil)
	}
	o := s.newOrchestrator(orchestrator.Config{}, acme)
	s.seedScan(o)

	res, err := o.RequestDeletions(s.ctx, orchestrator.DeletionRequestInput{Selector: orchestrator.Selector{All: true}})
	s.Require().NoError(err)
	s.Zero(res.Submitted)
	s.Equal(1, res.Failed)
	s.True(connectors.IsTransport(res.Brokers["acme"].Err))

	rows, err := s.store.ListDeletionRequests(s.ctx, "")
	s.Require().NoError(err)
	s.Empty(rows)
}

func (s *OrchestratorSuite) TestDelete_MissingConnector() {
	s.Require().NoError(s.store.UpsertBroker(s.ctx, fixtures.NewBroker("retired")))
	_, err := s.store.UpsertPersonalRecord(s.ctx, fixtures.NewRecord("retired", connectors.KindName, "Jane Doe"))
	s.Require().NoError(err)
	o := s.newOrchestrator(orchestrator.Config{})

	res, err := o.RequestDeletions(s.ctx, orchestrator.DeletionRequestInput{Selector: orchestrator.Selector{All: true}})
	s.Require().NoError(err)
	s.Equal(1, res.Failed)
	s.ErrorIs(res.Brokers["retired"].Err, connectors.ErrConnectorNotFound)
}

func (s *OrchestratorSuite) TestDelete_ResolvesConnectorThroughBrokerRow() {
	b := fixtures.NewBroker("acme-inc")
	b.Connector = fixtures.Ptr("acme")
	s.Require().NoError(s.store.UpsertBroker(s.ctx, b))
	_, err := s.store.UpsertPersonalRecord(s.ctx, fixtures.NewRecord("acme-inc", connectors.KindName, "Jane Doe"))
	s.Require().NoError(err)

	acme := connectortest.New("acme")
	o := s.newOrchestrator(orchestrator.Config{}, acme)

	res, err := o.RequestDeletions(s.ctx, orchestrator.DeletionRequestInput{Selector: orchestrator.Selector{BrokerID: "acme-inc"}})
	s.Require().NoError(err)
	s.Equal(1, res.Submitted)
	s.EqualValues(1, acme.DeleteCalls.Load())
}

func (s *OrchestratorSuite) TestDelete_SelectorErrors() {
	o := s.newOrchestrator(orchestrator.Config{}, scanning(connectortest.New("acme"), connectors.KindName, "Jane Doe"))

	s.Run("nothing stored", func() {
		_, err := o.RequestDeletions(s.ctx, orchestrator.DeletionRequestInput{Selector: orchestrator.Selector{All: true}})
		s.True(dErrors.HasCode(err, dErrors.CodeNoRecordsToDelete))
	})

	s.Run("unknown record", func() {
		_, err := o.RequestDeletions(s.ctx, orchestrator.DeletionRequestInput{Selector: orchestrator.Selector{RecordID: "missing"}})
		s.True(dErrors.HasCode(err, dErrors.CodeRecordNotFound))
	})

	s.Run("unknown broker", func() {
		_, err := o.RequestDeletions(s.ctx, orchestrator.DeletionRequestInput{Selector: orchestrator.Selector{BrokerID: "nope"}})
		s.True(dErrors.HasCode(err, dErrors.CodeBrokerNotFound))
	})

	s.Run("known broker without records", func() {
		s.Require().NoError(s.store.UpsertBroker(s.ctx, fixtures.NewBroker("empty")))
		_, err := o.RequestDeletions(s.ctx, orchestrator.DeletionRequestInput{Selector: orchestrator.Selector{BrokerID: "empty"}})
		s.True(dErrors.HasCode(err, dErrors.CodeNoRecordsToDelete))
	})
}

func (s *OrchestratorSuite) TestDelete_SingleRecord() {
	acme := scanning(connectortest.New("acme"), connectors.KindName, "Jane Doe", connectors.KindAge, "42")
	o := s.newOrchestrator(orchestrator.Config{}, acme)
	s.seedScan(o)

	recs, err := s.store.ListPersonalRecords(s.ctx, "acme")
	s.Require().NoError(err)
	target := recs[0]

	res, err := o.RequestDeletions(s.ctx, orchestrator.DeletionRequestInput{Selector: orchestrator.Selector{RecordID: target.ID}})
	s.Require().NoError(err)
	s.Equal(1, res.Submitted)

	batches := acme.DeletionBatches()
	s.Require().Len(batches, 1)
	s.Require().Len(batches[0], 1)
	s.Equal(target.DataValue, batches[0][0].DataValue)

	rows, err := s.store.ListDeletionRequests(s.ctx, "acme")
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(target.ID, *rows[0].PersonalRecordID)
}

func (s *OrchestratorSuite) TestDelete_StorageFailureAborts() {
	acme := scanning(connectortest.New("acme"), connectors.KindName, "Jane Doe")
	o := s.newOrchestrator(orchestrator.Config{}, acme)
	s.seedScan(o)

	failing := &failingStore{InMemoryStore: s.store, failCreate: true}
	o = s.newOrchestratorWithStore(failing, orchestrator.Config{}, acme)
	res, err := o.RequestDeletions(s.ctx, orchestrator.DeletionRequestInput{Selector: orchestrator.Selector{All: true}})
	s.Nil(res)
	s.True(isStorageFailure(err))
}
