package handler

import (
	"strings"

	"databreaker/internal/broker/connectors"
	"databreaker/internal/broker/models"
	"databreaker/internal/broker/orchestrator"
	dErrors "databreaker/pkg/domain-errors"
	pstrings "databreaker/pkg/platform/strings"
	"databreaker/pkg/platform/validation"
	validate "databreaker/pkg/validation"
)

// ScanRequest is the body of POST /scan.
type ScanRequest struct {
	Query   connectors.PersonQuery `json:"query"`
	Brokers []string               `json:"brokers,omitempty"`
	Country string                 `json:"country,omitempty" validate:"omitempty,iso3166_1_alpha2"`
}

func (r *ScanRequest) Normalize() {
	if r == nil {
		return
	}
	r.Query.Normalize()
	r.Brokers = pstrings.DedupeAndTrim(r.Brokers)
	r.Country = strings.ToUpper(strings.TrimSpace(r.Country))
}

func (r *ScanRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := checkQueryLengths(r.Query); err != nil {
		return err
	}
	if err := validation.CheckSliceCount("brokers", len(r.Brokers), validation.MaxBrokers); err != nil {
		return err
	}
	if err := validation.CheckEachStringLength("broker id", r.Brokers, validation.MaxBrokerIDLength); err != nil {
		return err
	}
	return validate.Validate(r)
}

// DeleteRequest is the body of POST /delete. Exactly one selector is
// expected; record_id wins over broker_id, which wins over all. Query may
// be partial or absent; only field formats are checked.
type DeleteRequest struct {
	Query    *connectors.PersonQuery `json:"query,omitempty" validate:"-"`
	All      bool                    `json:"all,omitempty"`
	BrokerID string                  `json:"broker_id,omitempty"`
	RecordID string                  `json:"record_id,omitempty"`
}

func (r *DeleteRequest) Normalize() {
	if r == nil {
		return
	}
	if r.Query != nil {
		r.Query.Normalize()
	}
	r.BrokerID = strings.TrimSpace(r.BrokerID)
	r.RecordID = strings.TrimSpace(r.RecordID)
}

func (r *DeleteRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if !r.All && r.BrokerID == "" && r.RecordID == "" {
		return dErrors.New(dErrors.CodeValidation, "one of all, broker_id or record_id is required")
	}
	if err := validation.CheckStringLength("broker_id", r.BrokerID, validation.MaxBrokerIDLength); err != nil {
		return err
	}
	if r.Query != nil {
		if err := checkQueryLengths(*r.Query); err != nil {
			return err
		}
		if err := validate.ValidateExcept(r.Query, connectors.ScanOnlyFields...); err != nil {
			return err
		}
	}
	return validate.Validate(r)
}

func (r *DeleteRequest) toInput() orchestrator.DeletionRequestInput {
	in := orchestrator.DeletionRequestInput{
		Selector: orchestrator.Selector{All: r.All, BrokerID: r.BrokerID, RecordID: r.RecordID},
	}
	if r.Query != nil {
		in.Query = *r.Query
	}
	return in
}

// ReconcileRequest is the body of POST /reconcile. An empty body polls
// every eligible request.
type ReconcileRequest struct {
	BrokerID string `json:"broker_id,omitempty"`
	Status   string `json:"status,omitempty"`
}

func (r *ReconcileRequest) Normalize() {
	if r == nil {
		return
	}
	r.BrokerID = strings.TrimSpace(r.BrokerID)
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
}

func (r *ReconcileRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.CheckStringLength("broker_id", r.BrokerID, validation.MaxBrokerIDLength); err != nil {
		return err
	}
	_, err := parseStatusFilter(r.Status)
	return err
}

func parseStatusFilter(raw string) (models.DeletionStatus, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return "", nil
	}
	status := models.DeletionStatus(raw)
	if !status.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid status filter")
	}
	return status, nil
}

func checkQueryLengths(q connectors.PersonQuery) error {
	return validation.CheckFieldLengths(validation.MaxQueryFieldLength,
		validation.Field{Name: "first_name", Value: q.FirstName},
		validation.Field{Name: "last_name", Value: q.LastName},
		validation.Field{Name: "email", Value: q.Email},
		validation.Field{Name: "phone", Value: q.Phone},
		validation.Field{Name: "city", Value: q.City},
	)
}
