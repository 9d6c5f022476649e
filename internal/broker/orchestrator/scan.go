package orchestrator

import (
	"context"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"databreaker/internal/broker/connectors"
	"databreaker/internal/broker/models"
	"databreaker/internal/broker/tracer"
	"databreaker/pkg/platform/strings"
)

// ScanRequest selects connectors and supplies the person to look for.
type ScanRequest struct {
	Query connectors.PersonQuery
	// Brokers restricts the pass to these connector IDs. Empty means all.
	Brokers []string
	// Country keeps connectors holding data for this country. Defaults to
	// Query.Country.
	Country string
}

// ScanResult summarizes one scan pass.
type ScanResult struct {
	// Scanned lists connectors that were invoked, in ID order.
	Scanned []string
	// Skipped lists candidates without scan capability.
	Skipped []string
	// Unknown lists allow-listed IDs that are not registered.
	Unknown []string
	// NoCandidates is set when selection and country filtering left nothing
	// to consider. Distinct from "scanned, found nothing".
	NoCandidates bool
	// RecordsFound counts records returned by connectors during this call,
	// whether or not they were already stored.
	RecordsFound int
	// NewRecords counts rows that did not exist before this pass.
	NewRecords   int
	PerConnector map[string]int
	Errors       map[string]error
}

// Failed is the number of connectors whose scan failed.
func (r *ScanResult) Failed() int {
	return len(r.Errors)
}

// Scan runs the scan pass. Only storage failures are returned as errors;
// per-connector failures are collected in the result.
func (o *Orchestrator) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	country := req.Country
	if country == "" {
		country = req.Query.Country
	}
	queryHash := tracer.HashQuery(req.Query.FirstName, req.Query.LastName)
	log := o.logger.With(zap.String("pass", "scan"), zap.String("query_hash", queryHash))

	ctx, span := o.tracer.Start(ctx, tracer.SpanScan, tracer.String(tracer.AttrQueryHash, queryHash))

	result := &ScanResult{
		PerConnector: make(map[string]int),
		Errors:       make(map[string]error),
	}

	candidates := o.selectCandidates(req.Brokers, country, result, log)
	span.SetAttributes(tracer.Int(tracer.AttrCandidates, len(candidates)))
	if len(candidates) == 0 {
		result.NoCandidates = true
		log.Info("no connectors matched the selection",
			zap.Strings("brokers", req.Brokers), zap.String("country", country))
		span.End(nil)
		return result, nil
	}

	var scannable []connectors.Connector
	for _, c := range candidates {
		if !c.Capabilities().CanScan {
			log.Info("skipping connector without scan capability", zap.String("connector_id", c.ID()))
			result.Skipped = append(result.Skipped, c.ID())
			continue
		}
		if err := o.ensureBroker(ctx, c); err != nil {
			span.End(err)
			return nil, err
		}
		scannable = append(scannable, c)
		result.Scanned = append(result.Scanned, c.ID())
	}

	breakers := o.newBreakers()
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)

	for _, c := range scannable {
		g.Go(func() error {
			records, err := call(gctx, o, c, opScan, breakers, func(cctx context.Context) ([]connectors.FoundRecord, error) {
				return c.Scan(cctx, req.Query)
			})
			if err != nil {
				log.Warn("connector scan failed",
					zap.String("connector_id", c.ID()),
					zap.String("category", string(connectors.GetCategory(err))),
					zap.Error(err))
				mu.Lock()
				result.Errors[c.ID()] = err
				mu.Unlock()
				return nil
			}

			created, err := o.persistRecords(gctx, c.ID(), records)
			if err != nil {
				return err
			}
			if o.metrics != nil {
				o.metrics.RecordFound(c.ID(), len(records))
			}
			log.Info("connector scan complete",
				zap.String("connector_id", c.ID()),
				zap.Int("records", len(records)),
				zap.Int("new_records", created))

			mu.Lock()
			result.PerConnector[c.ID()] = len(records)
			result.RecordsFound += len(records)
			result.NewRecords += created
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.End(err)
		return nil, err
	}

	span.SetAttributes(
		tracer.Int(tracer.AttrRecords, result.RecordsFound),
		tracer.Int(tracer.AttrErrors, len(result.Errors)))
	span.End(nil)
	o.recordPass("scan")
	log.Info("scan pass complete",
		zap.Int("connectors", len(result.Scanned)),
		zap.Int("records_found", result.RecordsFound),
		zap.Int("failed", result.Failed()))
	return result, nil
}

func (o *Orchestrator) selectCandidates(allow []string, country string, result *ScanResult, log *zap.Logger) []connectors.Connector {
	var pool []connectors.Connector
	allow = strings.DedupeAndTrim(allow)
	if len(allow) == 0 {
		pool = o.registry.All()
	} else {
		for _, id := range allow {
			c, ok := o.registry.Get(id)
			if !ok {
				log.Warn("unknown connector in selection", zap.String("connector_id", id))
				result.Unknown = append(result.Unknown, id)
				continue
			}
			pool = append(pool, c)
		}
	}

	out := pool[:0:0]
	for _, c := range pool {
		if !connectors.CoversCountry(c, country) {
			log.Debug("connector excluded by country filter",
				zap.String("connector_id", c.ID()), zap.String("country", country))
			continue
		}
		out = append(out, c)
	}
	return out
}

// ensureBroker creates a minimal broker row for c when none exists.
func (o *Orchestrator) ensureBroker(ctx context.Context, c connectors.Connector) error {
	now := o.now()
	id := c.ID()
	b := &models.Broker{
		ID:        id,
		Name:      c.Name(),
		Connector: &id,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if home := c.HomeCountry(); home != "" {
		b.Country = &home
	}
	if dc := c.DataCountries(); len(dc) > 0 {
		b.DataCountries = append([]string(nil), dc...)
	}
	if _, err := o.store.EnsureBroker(ctx, b); err != nil {
		return storageFailure("ensure broker "+id, err)
	}
	return nil
}

func (o *Orchestrator) persistRecords(ctx context.Context, brokerID string, records []connectors.FoundRecord) (int, error) {
	now := o.now()
	created := 0
	for _, r := range records {
		rec := &models.PersonalRecord{
			BrokerID:  brokerID,
			DataType:  r.DataType,
			DataValue: r.DataValue,
			FoundAt:   now,
		}
		if r.ProfileURL != "" {
			u := r.ProfileURL
			rec.ProfileURL = &u
		}
		if len(r.Metadata) > 0 {
			if raw, err := json.Marshal(r.Metadata); err == nil {
				s := string(raw)
				rec.RawJSON = &s
			}
		}
		isNew, err := o.store.UpsertPersonalRecord(ctx, rec)
		if err != nil {
			return created, storageFailure("upsert personal record", err)
		}
		if isNew {
			created++
		}
	}
	return created, nil
}
