package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"databreaker/internal/broker/connectors"
	"databreaker/internal/broker/models"
	"databreaker/internal/broker/store"
	"databreaker/internal/broker/tracer"
	dErrors "databreaker/pkg/domain-errors"
)

// ReconcileRequest narrows a reconciliation pass.
type ReconcileRequest struct {
	// BrokerID limits the pass to one broker's requests.
	BrokerID string
	// Status filters the returned requests by their status after
	// reconciliation. It does not limit what is polled.
	Status models.DeletionStatus
}

// ReconcileResult reports a reconciliation pass.
type ReconcileResult struct {
	// Requests are the deletion requests matching the filters, with any
	// updates from this pass applied.
	Requests []*models.DeletionRequest
	// Checked counts status check attempts, one per distinct external reference.
	Checked int
	// Updated counts rows whose status changed.
	Updated int
	// Skipped counts rows that were not eligible for polling.
	Skipped int
	// Errors maps deletion request ID to the failure that left it untouched.
	Errors map[string]error
}

type pollKey struct {
	connectorID string
	ref         string
}

type pollGroup struct {
	connector connectors.Connector
	ref       string
	rows      []*models.DeletionRequest
}

// Reconcile polls every in-flight deletion request that has an external
// reference and a connector able to check status. Rows sharing a reference
// are checked once. Only status changes are written.
func (o *Orchestrator) Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error) {
	log := o.logger.With(zap.String("pass", "reconcile"))
	ctx, span := o.tracer.Start(ctx, tracer.SpanReconcile)

	if req.BrokerID != "" {
		if _, err := o.store.GetBroker(ctx, req.BrokerID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				err = dErrors.New(dErrors.CodeBrokerNotFound, fmt.Sprintf("broker %s not found", req.BrokerID))
			} else {
				err = storageFailure("load broker", err)
			}
			span.End(err)
			return nil, err
		}
	}

	rows, err := o.store.ListDeletionRequests(ctx, req.BrokerID)
	if err != nil {
		err = storageFailure("list deletion requests", err)
		span.End(err)
		return nil, err
	}

	result := &ReconcileResult{Errors: make(map[string]error)}
	groups, err := o.groupPollable(ctx, rows, result, log)
	if err != nil {
		span.End(err)
		return nil, err
	}
	span.SetAttributes(tracer.Int(tracer.AttrCandidates, len(groups)))

	breakers := o.newBreakers()
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)

	for _, grp := range groups {
		g.Go(func() error {
			check, err := call(gctx, o, grp.connector, opStatus, breakers, func(cctx context.Context) (connectors.DeletionStatusCheck, error) {
				return grp.connector.CheckDeletionStatus(cctx, grp.ref)
			})
			mu.Lock()
			result.Checked++
			mu.Unlock()
			if err != nil {
				log.Warn("status check failed",
					zap.String("connector_id", grp.connector.ID()),
					zap.String("external_ref", grp.ref),
					zap.Error(err))
				mu.Lock()
				for _, row := range grp.rows {
					result.Errors[row.ID] = err
				}
				mu.Unlock()
				return nil
			}

			next := models.ParseDeletionStatus(check.Status)
			if next == models.StatusUnknown {
				log.Warn("connector reported unrecognized status",
					zap.String("connector_id", grp.connector.ID()),
					zap.String("status", check.Status))
			}
			updated, err := o.applyStatus(gctx, grp, next, check)
			if err != nil {
				return err
			}
			mu.Lock()
			result.Updated += updated
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.End(err)
		return nil, err
	}

	for _, row := range rows {
		if req.Status != "" && row.Status != req.Status {
			continue
		}
		result.Requests = append(result.Requests, row)
	}

	span.SetAttributes(tracer.Int(tracer.AttrRecords, result.Updated), tracer.Int(tracer.AttrErrors, len(result.Errors)))
	span.End(nil)
	o.recordPass("reconcile")
	log.Info("reconciliation pass complete",
		zap.Int("requests", len(rows)),
		zap.Int("checked", result.Checked),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", len(result.Errors)))
	return result, nil
}

// groupPollable returns eligible rows grouped by connector and external
// reference, in first-seen order.
func (o *Orchestrator) groupPollable(ctx context.Context, rows []*models.DeletionRequest, result *ReconcileResult, log *zap.Logger) ([]*pollGroup, error) {
	type resolved struct {
		c  connectors.Connector
		ok bool
	}
	byBroker := make(map[string]resolved)
	byKey := make(map[pollKey]*pollGroup)
	var groups []*pollGroup

	for _, row := range rows {
		if !row.Status.IsPollable() || !row.HasExternalRef() {
			result.Skipped++
			continue
		}
		r, seen := byBroker[row.BrokerID]
		if !seen {
			c, ok, err := o.resolveConnector(ctx, row.BrokerID)
			if err != nil {
				return nil, err
			}
			r = resolved{c: c, ok: ok}
			byBroker[row.BrokerID] = r
			if !ok {
				log.Warn("no connector for broker, leaving requests untouched", zap.String("broker_id", row.BrokerID))
			}
		}
		if !r.ok || !r.c.Capabilities().CanCheckStatus {
			result.Skipped++
			continue
		}
		key := pollKey{connectorID: r.c.ID(), ref: *row.ExternalRef}
		grp, ok := byKey[key]
		if !ok {
			grp = &pollGroup{connector: r.c, ref: key.ref}
			byKey[key] = grp
			groups = append(groups, grp)
		}
		grp.rows = append(grp.rows, row)
	}
	return groups, nil
}

// applyStatus writes next to every row in grp whose stored status differs.
// Rows are updated in place so the caller sees the new values.
func (o *Orchestrator) applyStatus(ctx context.Context, grp *pollGroup, next models.DeletionStatus, check connectors.DeletionStatusCheck) (int, error) {
	updated := 0
	for _, row := range grp.rows {
		if row.Status == next {
			continue
		}
		prev := row.Status
		changed := *row
		changed.Status = next
		changed.CompletedAt = check.CompletedAt
		changed.ErrorMessage = nil
		if check.Message != "" {
			msg := check.Message
			changed.ErrorMessage = &msg
		}
		changed.UpdatedAt = o.now()
		if err := o.store.UpdateDeletionRequest(ctx, &changed); err != nil {
			return updated, storageFailure("update deletion request "+row.ID, err)
		}
		*row = changed
		updated++
		if o.metrics != nil {
			o.metrics.RecordTransition(grp.connector.ID(), string(prev), string(next))
		}
	}
	return updated, nil
}
