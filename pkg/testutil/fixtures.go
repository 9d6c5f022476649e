package testutil

import (
	"time"

	"databreaker/internal/broker/models"
)

// FixedTime is a deterministic reference instant for tests.
var FixedTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// NewBroker returns a minimal broker row.
func NewBroker(id string) *models.Broker {
	return &models.Broker{
		ID:        id,
		Name:      id,
		Connector: Ptr(id),
		CreatedAt: FixedTime,
		UpdatedAt: FixedTime,
	}
}

// NewRecord returns an unsaved personal record for broker.
func NewRecord(brokerID, kind, value string) *models.PersonalRecord {
	return &models.PersonalRecord{
		BrokerID:  brokerID,
		DataType:  kind,
		DataValue: value,
		FoundAt:   FixedTime,
	}
}

// NewDeletion returns an unsaved submitted deletion request.
func NewDeletion(brokerID string, recordID *string, ref string) *models.DeletionRequest {
	req := &models.DeletionRequest{
		BrokerID:         brokerID,
		PersonalRecordID: recordID,
		Status:           models.StatusSubmitted,
		SubmittedAt:      Ptr(FixedTime),
		CreatedAt:        FixedTime,
		UpdatedAt:        FixedTime,
	}
	if ref != "" {
		req.ExternalRef = Ptr(ref)
	}
	return req
}
