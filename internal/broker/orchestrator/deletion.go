package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"databreaker/internal/broker/connectors"
	"databreaker/internal/broker/metrics"
	"databreaker/internal/broker/models"
	"databreaker/internal/broker/store"
	"databreaker/internal/broker/tracer"
	dErrors "databreaker/pkg/domain-errors"
)

// Selector picks the stored records a deletion pass targets. Exactly one of
// All, BrokerID or RecordID is expected; RecordID wins over BrokerID, which
// wins over All.
type Selector struct {
	All      bool
	BrokerID string
	RecordID string
}

func (s Selector) String() string {
	switch {
	case s.RecordID != "":
		return "record " + s.RecordID
	case s.BrokerID != "":
		return "broker " + s.BrokerID
	default:
		return "all records"
	}
}

// DeletionRequestInput is the query sent alongside the records. The query
// may be empty; connectors that need identity fields fail on their own.
type DeletionRequestInput struct {
	Query    connectors.PersonQuery
	Selector Selector
}

// BrokerOutcome is the per-broker result of a deletion pass.
type BrokerOutcome struct {
	Records     int
	Submitted   bool
	ExternalRef string
	Message     string
	Err         error
}

// DeletionResult aggregates a deletion pass. Submitted and Failed count
// records, not brokers.
type DeletionResult struct {
	Submitted int
	Failed    int
	Brokers   map[string]*BrokerOutcome
}

// BrokerIDs returns the partitions of the pass in ID order.
func (r *DeletionResult) BrokerIDs() []string {
	ids := make([]string, 0, len(r.Brokers))
	for id := range r.Brokers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RequestDeletions runs the deletion pass: one deletion call per broker
// partition. On success one submitted DeletionRequest row is written per
// record, all sharing the external reference and submission time. A failed
// partition writes nothing.
func (o *Orchestrator) RequestDeletions(ctx context.Context, in DeletionRequestInput) (*DeletionResult, error) {
	log := o.logger.With(zap.String("pass", "delete"), zap.String("selector", in.Selector.String()))
	ctx, span := o.tracer.Start(ctx, tracer.SpanDelete,
		tracer.String(tracer.AttrQueryHash, tracer.HashQuery(in.Query.FirstName, in.Query.LastName)))

	records, err := o.resolveSelector(ctx, in.Selector)
	if err != nil {
		span.End(err)
		return nil, err
	}

	partitions := make(map[string][]*models.PersonalRecord)
	for _, r := range records {
		partitions[r.BrokerID] = append(partitions[r.BrokerID], r)
	}
	span.SetAttributes(tracer.Int(tracer.AttrCandidates, len(partitions)), tracer.Int(tracer.AttrRecords, len(records)))

	result := &DeletionResult{Brokers: make(map[string]*BrokerOutcome, len(partitions))}
	type job struct {
		brokerID  string
		connector connectors.Connector
		records   []*models.PersonalRecord
	}
	var jobs []job
	for brokerID, recs := range partitions {
		outcome := &BrokerOutcome{Records: len(recs)}
		result.Brokers[brokerID] = outcome

		c, ok, err := o.resolveConnector(ctx, brokerID)
		if err != nil {
			span.End(err)
			return nil, err
		}
		switch {
		case !ok:
			outcome.Err = fmt.Errorf("%w: %s", connectors.ErrConnectorNotFound, brokerID)
			log.Warn("no connector for broker", zap.String("broker_id", brokerID), zap.Int("records", len(recs)))
			result.Failed += len(recs)
		case !c.Capabilities().CanDelete:
			outcome.Err = connectors.Unsupported(c.ID(), "deletion")
			log.Warn("connector does not support deletion", zap.String("connector_id", c.ID()), zap.Int("records", len(recs)))
			result.Failed += len(recs)
		default:
			jobs = append(jobs, job{brokerID: brokerID, connector: c, records: recs})
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].brokerID < jobs[j].brokerID })

	breakers := o.newBreakers()
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)

	for _, j := range jobs {
		g.Go(func() error {
			found := toFoundRecords(j.records)
			sub, err := call(gctx, o, j.connector, opDelete, breakers, func(cctx context.Context) (connectors.DeletionSubmission, error) {
				return j.connector.RequestDeletion(cctx, in.Query, found)
			})
			if err != nil {
				log.Warn("deletion request failed",
					zap.String("connector_id", j.connector.ID()),
					zap.String("category", string(connectors.GetCategory(err))),
					zap.Error(err))
				mu.Lock()
				result.Brokers[j.brokerID].Err = err
				result.Failed += len(j.records)
				mu.Unlock()
				if o.metrics != nil {
					o.metrics.RecordDeletion(j.connector.ID(), metrics.OutcomeFailure)
				}
				return nil
			}

			if err := o.persistSubmission(gctx, j.brokerID, j.records, sub); err != nil {
				return err
			}
			if o.metrics != nil {
				o.metrics.RecordDeletion(j.connector.ID(), metrics.OutcomeSuccess)
			}
			log.Info("deletion submitted",
				zap.String("connector_id", j.connector.ID()),
				zap.Int("records", len(j.records)),
				zap.String("external_ref", sub.ExternalRef))

			mu.Lock()
			outcome := result.Brokers[j.brokerID]
			outcome.Submitted = true
			outcome.ExternalRef = sub.ExternalRef
			outcome.Message = sub.Message
			result.Submitted += len(j.records)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.End(err)
		return nil, err
	}

	span.SetAttributes(tracer.Int(tracer.AttrErrors, result.Failed))
	span.End(nil)
	o.recordPass("delete")
	log.Info("deletion pass complete",
		zap.Int("brokers", len(result.Brokers)),
		zap.Int("submitted", result.Submitted),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (o *Orchestrator) resolveSelector(ctx context.Context, sel Selector) ([]*models.PersonalRecord, error) {
	switch {
	case sel.RecordID != "":
		rec, err := o.store.GetPersonalRecord(ctx, sel.RecordID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeRecordNotFound, fmt.Sprintf("personal record %s not found", sel.RecordID))
		}
		if err != nil {
			return nil, storageFailure("load personal record", err)
		}
		return []*models.PersonalRecord{rec}, nil

	case sel.BrokerID != "":
		if _, err := o.store.GetBroker(ctx, sel.BrokerID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeBrokerNotFound, fmt.Sprintf("broker %s not found", sel.BrokerID))
			}
			return nil, storageFailure("load broker", err)
		}
		recs, err := o.store.ListPersonalRecords(ctx, sel.BrokerID)
		if err != nil {
			return nil, storageFailure("list personal records", err)
		}
		if len(recs) == 0 {
			return nil, dErrors.New(dErrors.CodeNoRecordsToDelete, fmt.Sprintf("no records stored for broker %s", sel.BrokerID))
		}
		return recs, nil

	default:
		recs, err := o.store.ListPersonalRecords(ctx, "")
		if err != nil {
			return nil, storageFailure("list personal records", err)
		}
		if len(recs) == 0 {
			return nil, dErrors.New(dErrors.CodeNoRecordsToDelete, "no records stored")
		}
		return recs, nil
	}
}

func (o *Orchestrator) persistSubmission(ctx context.Context, brokerID string, recs []*models.PersonalRecord, sub connectors.DeletionSubmission) error {
	now := o.now()
	var ref *string
	if sub.ExternalRef != "" {
		r := sub.ExternalRef
		ref = &r
	}
	rows := make([]*models.DeletionRequest, 0, len(recs))
	for _, rec := range recs {
		recID := rec.ID
		submittedAt := now
		rows = append(rows, &models.DeletionRequest{
			BrokerID:         brokerID,
			PersonalRecordID: &recID,
			Status:           models.StatusSubmitted,
			SubmittedAt:      &submittedAt,
			ExternalRef:      ref,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}
	if err := o.store.CreateDeletionRequests(ctx, rows); err != nil {
		return storageFailure("create deletion requests for "+brokerID, err)
	}
	return nil
}

// toFoundRecords rebuilds the connector view of stored records. Metadata
// that no longer decodes is dropped.
func toFoundRecords(recs []*models.PersonalRecord) []connectors.FoundRecord {
	out := make([]connectors.FoundRecord, 0, len(recs))
	for _, r := range recs {
		fr := connectors.FoundRecord{DataType: r.DataType, DataValue: r.DataValue}
		if r.ProfileURL != nil {
			fr.ProfileURL = *r.ProfileURL
		}
		if r.RawJSON != nil {
			var md map[string]any
			if err := json.Unmarshal([]byte(*r.RawJSON), &md); err == nil {
				fr.Metadata = md
			}
		}
		out = append(out, fr)
	}
	return out
}
