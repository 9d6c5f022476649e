package handler

import (
	"time"

	"databreaker/internal/broker/connectors"
	"databreaker/internal/broker/models"
	"databreaker/internal/broker/orchestrator"
)

type BrokerListResponse struct {
	Brokers []*models.Broker `json:"brokers"`
	Total   int              `json:"total"`
}

type RecordListResponse struct {
	Records []*models.PersonalRecord `json:"records"`
	Total   int                      `json:"total"`
}

type DeletionListResponse struct {
	Requests []*models.DeletionRequest `json:"requests"`
	Total    int                       `json:"total"`
}

type ConnectorResponse struct {
	ID            string                  `json:"id"`
	Name          string                  `json:"name"`
	Capabilities  connectors.Capabilities `json:"capabilities"`
	HomeCountry   string                  `json:"home_country,omitempty"`
	DataCountries []string                `json:"data_countries,omitempty"`
}

type ConnectorListResponse struct {
	Connectors []ConnectorResponse `json:"connectors"`
}

type RegistryInfoResponse struct {
	LastFetchedAt *time.Time `json:"last_fetched_at"`
	Brokers       int        `json:"brokers"`
}

type ScanResponse struct {
	Scanned      []string          `json:"scanned"`
	Skipped      []string          `json:"skipped,omitempty"`
	Unknown      []string          `json:"unknown,omitempty"`
	NoCandidates bool              `json:"no_candidates"`
	RecordsFound int               `json:"records_found"`
	NewRecords   int               `json:"new_records"`
	PerConnector map[string]int    `json:"per_connector"`
	Failed       int               `json:"failed"`
	Errors       map[string]string `json:"errors,omitempty"`
}

type BrokerOutcomeResponse struct {
	BrokerID    string `json:"broker_id"`
	Records     int    `json:"records"`
	Submitted   bool   `json:"submitted"`
	ExternalRef string `json:"external_ref,omitempty"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}

type DeletionResponse struct {
	Submitted int                     `json:"submitted"`
	Failed    int                     `json:"failed"`
	Brokers   []BrokerOutcomeResponse `json:"brokers"`
}

type ReconcileResponse struct {
	Checked  int                       `json:"checked"`
	Updated  int                       `json:"updated"`
	Skipped  int                       `json:"skipped"`
	Errors   map[string]string         `json:"errors,omitempty"`
	Requests []*models.DeletionRequest `json:"requests"`
}

func toConnectorResponse(c connectors.Connector) ConnectorResponse {
	return ConnectorResponse{
		ID:            c.ID(),
		Name:          c.Name(),
		Capabilities:  c.Capabilities(),
		HomeCountry:   c.HomeCountry(),
		DataCountries: c.DataCountries(),
	}
}

func toScanResponse(r *orchestrator.ScanResult) ScanResponse {
	scanned := r.Scanned
	if scanned == nil {
		scanned = []string{}
	}
	return ScanResponse{
		Scanned:      scanned,
		Skipped:      r.Skipped,
		Unknown:      r.Unknown,
		NoCandidates: r.NoCandidates,
		RecordsFound: r.RecordsFound,
		NewRecords:   r.NewRecords,
		PerConnector: r.PerConnector,
		Failed:       r.Failed(),
		Errors:       errorStrings(r.Errors),
	}
}

func toDeletionResponse(r *orchestrator.DeletionResult) DeletionResponse {
	res := DeletionResponse{
		Submitted: r.Submitted,
		Failed:    r.Failed,
		Brokers:   make([]BrokerOutcomeResponse, 0, len(r.Brokers)),
	}
	for _, id := range r.BrokerIDs() {
		out := r.Brokers[id]
		item := BrokerOutcomeResponse{
			BrokerID:    id,
			Records:     out.Records,
			Submitted:   out.Submitted,
			ExternalRef: out.ExternalRef,
			Message:     out.Message,
		}
		if out.Err != nil {
			item.Error = out.Err.Error()
		}
		res.Brokers = append(res.Brokers, item)
	}
	return res
}

func toReconcileResponse(r *orchestrator.ReconcileResult) ReconcileResponse {
	requests := r.Requests
	if requests == nil {
		requests = []*models.DeletionRequest{}
	}
	return ReconcileResponse{
		Checked:  r.Checked,
		Updated:  r.Updated,
		Skipped:  r.Skipped,
		Errors:   errorStrings(r.Errors),
		Requests: requests,
	}
}

func errorStrings(errs map[string]error) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	out := make(map[string]string, len(errs))
	for k, err := range errs {
		out[k] = err.Error()
	}
	return out
}
