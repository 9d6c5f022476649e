// Package report summarizes the local store for humans and machines.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"databreaker/internal/broker/models"
	"databreaker/internal/broker/store"
)

// Format selects a renderer.
type Format string

const (
	FormatTerminal Format = "terminal"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
)

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTerminal, FormatJSON, FormatHTML:
		return f, nil
	case "":
		return FormatTerminal, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want terminal, json or html)", s)
	}
}

// Summary holds the headline counts. Failed includes rejected requests.
type Summary struct {
	TotalBrokers   int `json:"total_brokers"`
	TotalRecords   int `json:"total_records"`
	TotalDeletions int `json:"total_deletions"`
	Pending        int `json:"deletions_pending"`
	Submitted      int `json:"deletions_submitted"`
	InProgress     int `json:"deletions_in_progress"`
	Completed      int `json:"deletions_completed"`
	Failed         int `json:"deletions_failed"`
	Unknown        int `json:"deletions_unknown"`
}

type Report struct {
	GeneratedAt      time.Time                 `json:"generated_at"`
	Brokers          []*models.Broker          `json:"brokers"`
	Records          []*models.PersonalRecord  `json:"records"`
	DeletionRequests []*models.DeletionRequest `json:"deletion_requests"`
	Summary          Summary                   `json:"summary"`
}

// Build reads everything the report shows in one pass over the store.
func Build(ctx context.Context, st store.Store, now time.Time) (*Report, error) {
	brokers, err := st.ListBrokers(ctx, models.BrokerFilter{})
	if err != nil {
		return nil, fmt.Errorf("list brokers: %w", err)
	}
	records, err := st.ListPersonalRecords(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list personal records: %w", err)
	}
	deletions, err := st.ListDeletionRequests(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list deletion requests: %w", err)
	}
	counts, err := st.CountDeletionsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count deletion requests: %w", err)
	}

	return &Report{
		GeneratedAt:      now,
		Brokers:          brokers,
		Records:          records,
		DeletionRequests: deletions,
		Summary:          summarize(len(brokers), len(records), counts),
	}, nil
}

func summarize(brokers, records int, counts models.StatusCounts) Summary {
	total := 0
	for _, n := range counts {
		total += n
	}
	return Summary{
		TotalBrokers:   brokers,
		TotalRecords:   records,
		TotalDeletions: total,
		Pending:        counts[models.StatusPending],
		Submitted:      counts[models.StatusSubmitted],
		InProgress:     counts[models.StatusInProgress],
		Completed:      counts[models.StatusCompleted],
		Failed:         counts[models.StatusFailed] + counts[models.StatusRejected],
		Unknown:        counts[models.StatusUnknown],
	}
}

// Render writes r to w in the given format.
func (r *Report) Render(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, r)
	case FormatHTML:
		return renderHTML(w, r)
	case FormatTerminal, "":
		return renderTerminal(w, r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// shortID trims UUIDs for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func deref(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
