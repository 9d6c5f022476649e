package orchestrator_test

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"databreaker/internal/broker/connectors"
	"databreaker/internal/broker/connectors/connectortest"
	"databreaker/internal/broker/models"
	"databreaker/internal/broker/orchestrator"
	dErrors "databreaker/pkg/domain-errors"
	fixtures "databreaker/pkg/testutil"
)

// seedDeletion stores a broker, a record and one submitted deletion request.
func (s *OrchestratorSuite) seedDeletion(brokerID, value, ref string, status models.DeletionStatus) *models.DeletionRequest {
	if _, err := s.store.GetBroker(s.ctx, brokerID); err != nil {
		s.Require().NoError(s.store.UpsertBroker(s.ctx, fixtures.NewBroker(brokerID)))
	}
	rec := fixtures.NewRecord(brokerID, connectors.KindName, value)
	_, err := s.store.UpsertPersonalRecord(s.ctx, rec)
	s.Require().NoError(err)

	req := fixtures.NewDeletion(brokerID, &rec.ID, ref)
	req.Status = status
	s.Require().NoError(s.store.CreateDeletionRequests(s.ctx, []*models.DeletionRequest{req}))
	return req
}

func (s *OrchestratorSuite) reload(id string, brokerID string) *models.DeletionRequest {
	rows, err := s.store.ListDeletionRequests(s.ctx, brokerID)
	s.Require().NoError(err)
	for _, r := range rows {
		if r.ID == id {
			return r
		}
	}
	s.FailNow("deletion request not found", id)
	return nil
}

func (s *OrchestratorSuite) TestReconcile_UnchangedStatusIsNotWritten() {
	req := s.seedDeletion("acme", "Jane Doe", "ACME-1", models.StatusSubmitted)
	acme := connectortest.New("acme")
	acme.StatusFn = func(context.Context, string) (connectors.DeletionStatusCheck, error) {
		return connectors.DeletionStatusCheck{Status: "Submitted", Message: "still queued"}, nil
	}
	o := s.newOrchestrator(orchestrator.Config{}, acme)

	res, err := o.Reconcile(s.ctx, orchestrator.ReconcileRequest{})
	s.Require().NoError(err)
	s.Equal(1, res.Checked)
	s.Zero(res.Updated)

	got := s.reload(req.ID, "acme")
	s.Equal(fixtures.FixedTime, got.UpdatedAt)
	s.Nil(got.ErrorMessage)
}

func (s *OrchestratorSuite) TestReconcile_AppliesTransition() {
	req := s.seedDeletion("acme", "Jane Doe", "ACME-1", models.StatusSubmitted)
	done := fixtures.FixedTime.Add(48 * time.Hour)
	acme := connectortest.New("acme")
	acme.StatusFn = func(_ context.Context, ref string) (connectors.DeletionStatusCheck, error) {
		s.Equal("ACME-1", ref)
		return connectors.DeletionStatusCheck{Status: "done", CompletedAt: &done, Message: "removed"}, nil
	}
	o := s.newOrchestrator(orchestrator.Config{}, acme)

	res, err := o.Reconcile(s.ctx, orchestrator.ReconcileRequest{})
	s.Require().NoError(err)
	s.Equal(1, res.Updated)
	s.Require().Len(res.Requests, 1)
	s.Equal(models.StatusCompleted, res.Requests[0].Status)

	got := s.reload(req.ID, "acme")
	s.Equal(models.StatusCompleted, got.Status)
	s.Require().NotNil(got.CompletedAt)
	s.True(done.Equal(*got.CompletedAt))
	s.Require().NotNil(got.ErrorMessage)
	s.Equal("removed", *got.ErrorMessage)
	s.True(got.UpdatedAt.After(fixtures.FixedTime))

	s.Equal(float64(1), testutil.ToFloat64(
		s.metrics.StatusTransitionsTotal.WithLabelValues("acme", "submitted", "completed")))

	s.Run("terminal rows are not polled again", func() {
		_, err := o.Reconcile(s.ctx, orchestrator.ReconcileRequest{})
		s.Require().NoError(err)
		s.EqualValues(1, acme.StatusCalls.Load())
	})
}

func (s *OrchestratorSuite) TestReconcile_MissingConnectorLeavesStatus() {
	req := s.seedDeletion("retired", "Jane Doe", "R-1", models.StatusSubmitted)
	o := s.newOrchestrator(orchestrator.Config{})

	res, err := o.Reconcile(s.ctx, orchestrator.ReconcileRequest{})
	s.Require().NoError(err)
	s.Zero(res.Checked)
	s.Equal(1, res.Skipped)

	got := s.reload(req.ID, "retired")
	s.Equal(models.StatusSubmitted, got.Status)
	s.Equal(fixtures.FixedTime, got.UpdatedAt)
}

func (s *OrchestratorSuite) TestReconcile_Eligibility() {
	noRef := s.seedDeletion("acme", "no ref", "", models.StatusSubmitted)
	pending := s.seedDeletion("acme", "pending", "ACME-P", models.StatusPending)
	unknown := s.seedDeletion("acme", "unknown", "ACME-U", models.StatusUnknown)
	inProgress := s.seedDeletion("acme", "in progress", "ACME-I", models.StatusInProgress)

	noStatus := connectortest.New("nostatus")
	noStatus.Caps = connectors.Capabilities{CanScan: true, CanDelete: true}
	s.seedDeletion("nostatus", "Jane Doe", "NS-1", models.StatusSubmitted)

	acme := connectortest.New("acme")
	acme.StatusFn = func(_ context.Context, ref string) (connectors.DeletionStatusCheck, error) {
		return connectors.DeletionStatusCheck{Status: "in-progress"}, nil
	}
	o := s.newOrchestrator(orchestrator.Config{}, acme, noStatus)

	res, err := o.Reconcile(s.ctx, orchestrator.ReconcileRequest{})
	s.Require().NoError(err)
	s.Equal(1, res.Checked)
	s.Zero(res.Updated)
	s.Equal(4, res.Skipped)
	s.EqualValues(1, acme.StatusCalls.Load())
	s.Zero(noStatus.StatusCalls.Load())

	for _, r := range []*models.DeletionRequest{noRef, pending, unknown, inProgress} {
		s.Equal(r.Status, s.reload(r.ID, "acme").Status)
	}
}

func (s *OrchestratorSuite) TestReconcile_SharedRefPolledOnce() {
	a := s.seedDeletion("acme", "Jane Doe", "ACME-1", models.StatusSubmitted)
	b := s.seedDeletion("acme", "42", "ACME-1", models.StatusSubmitted)
	acme := connectortest.New("acme")
	acme.StatusFn = func(context.Context, string) (connectors.DeletionStatusCheck, error) {
		return connectors.DeletionStatusCheck{Status: "rejected", Message: "identity not verified"}, nil
	}
	o := s.newOrchestrator(orchestrator.Config{}, acme)

	res, err := o.Reconcile(s.ctx, orchestrator.ReconcileRequest{})
	s.Require().NoError(err)
	s.Equal(1, res.Checked)
	s.Equal(2, res.Updated)
	s.EqualValues(1, acme.StatusCalls.Load())
	s.Equal(models.StatusRejected, s.reload(a.ID, "acme").Status)
	s.Equal(models.StatusRejected, s.reload(b.ID, "acme").Status)
}

func (s *OrchestratorSuite) TestReconcile_UnrecognizedStatusIsNotRepolled() {
	req := s.seedDeletion("acme", "Jane Doe", "ACME-1", models.StatusSubmitted)
	acme := connectortest.New("acme")
	acme.StatusFn = func(context.Context, string) (connectors.DeletionStatusCheck, error) {
		return connectors.DeletionStatusCheck{Status: "awaiting-notary"}, nil
	}
	o := s.newOrchestrator(orchestrator.Config{}, acme)

	_, err := o.Reconcile(s.ctx, orchestrator.ReconcileRequest{})
	s.Require().NoError(err)
	s.Equal(models.StatusUnknown, s.reload(req.ID, "acme").Status)

	_, err = o.Reconcile(s.ctx, orchestrator.ReconcileRequest{})
	s.Require().NoError(err)
	s.EqualValues(1, acme.StatusCalls.Load())
}

func (s *OrchestratorSuite) TestReconcile_CheckFailureLeavesRowUntouched() {
	req := s.seedDeletion("acme", "Jane Doe", "ACME-1", models.StatusSubmitted)
	acme := connectortest.New("acme")
	acme.StatusFn = func(context.Context, string) (connectors.DeletionStatusCheck, error) {
		return connectors.DeletionStatusCheck{}, connectors.NewError(connectors.ErrorBadData, "acme", "unrecognized reference", nil)
	}
	o := s.newOrchestrator(orchestrator.Config{}, acme)

	res, err := o.Reconcile(s.ctx, orchestrator.ReconcileRequest{})
	s.Require().NoError(err)
	s.Require().Contains(res.Errors, req.ID)
	s.Equal(connectors.ErrorBadData, connectors.GetCategory(res.Errors[req.ID]))

	got := s.reload(req.ID, "acme")
	s.Equal(models.StatusSubmitted, got.Status)
	s.Equal(fixtures.FixedTime, got.UpdatedAt)
}

func (s *OrchestratorSuite) TestReconcile_Filters() {
	s.seedDeletion("acme", "Jane Doe", "ACME-1", models.StatusSubmitted)
	s.seedDeletion("other", "Jane Doe", "OTHER-1", models.StatusSubmitted)
	acme := connectortest.New("acme")
	acme.StatusFn = func(context.Context, string) (connectors.DeletionStatusCheck, error) {
		return connectors.DeletionStatusCheck{Status: "completed"}, nil
	}
	other := connectortest.New("other")
	o := s.newOrchestrator(orchestrator.Config{}, acme, other)

	s.Run("status filter applies after reconciliation", func() {
		res, err := o.Reconcile(s.ctx, orchestrator.ReconcileRequest{Status: models.StatusCompleted})
		s.Require().NoError(err)
		s.Require().Len(res.Requests, 1)
		s.Equal("acme", res.Requests[0].BrokerID)
		s.Equal(2, res.Checked)
	})

	s.Run("broker filter limits polling", func() {
		res, err := o.Reconcile(s.ctx, orchestrator.ReconcileRequest{BrokerID: "other"})
		s.Require().NoError(err)
		s.Require().Len(res.Requests, 1)
		s.Equal("other", res.Requests[0].BrokerID)
		s.EqualValues(2, other.StatusCalls.Load())
	})

	s.Run("unknown broker", func() {
		_, err := o.Reconcile(s.ctx, orchestrator.ReconcileRequest{BrokerID: "nope"})
		s.True(dErrors.HasCode(err, dErrors.CodeBrokerNotFound))
	})
}

func (s *OrchestratorSuite) TestReconcile_BreakerStopsRepeatedTransportFailures() {
	s.seedDeletion("acme", "a", "ACME-1", models.StatusSubmitted)
	s.seedDeletion("acme", "b", "ACME-2", models.StatusSubmitted)
	s.seedDeletion("acme", "c", "ACME-3", models.StatusSubmitted)
	acme := connectortest.New("acme")
	acme.StatusFn = func(context.Context, string) (connectors.DeletionStatusCheck, error) {
		return connectors.DeletionStatusCheck{}, connectors.NewError(connectors.ErrorTransport, "acme", "connection reset", nil)
	}
	o := s.newOrchestrator(orchestrator.Config{Concurrency: 1, BreakerThreshold: 2}, acme)

	res, err := o.Reconcile(s.ctx, orchestrator.ReconcileRequest{})
	s.Require().NoError(err)
	s.Len(res.Errors, 3)
	s.EqualValues(2, acme.StatusCalls.Load())

	s.Run("breakers reset between passes", func() {
		_, err := o.Reconcile(s.ctx, orchestrator.ReconcileRequest{})
		s.Require().NoError(err)
		s.EqualValues(4, acme.StatusCalls.Load())
	})
}

func (s *OrchestratorSuite) TestDeleteThenReconcile() {
	acme := scanning(connectortest.New("acme"), connectors.KindName, "Jane Doe", connectors.KindAge, "42")
	acme.StatusFn = func(_ context.Context, ref string) (connectors.DeletionStatusCheck, error) {
		s.Equal("acme-ref", ref)
		return connectors.DeletionStatusCheck{Status: "in_progress"}, nil
	}
	o := s.newOrchestrator(orchestrator.Config{}, acme)
	s.seedScan(o)

	_, err := o.RequestDeletions(s.ctx, orchestrator.DeletionRequestInput{Query: s.query(), Selector: orchestrator.Selector{All: true}})
	s.Require().NoError(err)

	res, err := o.Reconcile(s.ctx, orchestrator.ReconcileRequest{Status: models.StatusInProgress})
	s.Require().NoError(err)
	s.Equal(1, res.Checked)
	s.Equal(2, res.Updated)
	s.Len(res.Requests, 2)
}
