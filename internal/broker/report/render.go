package report

import (
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/pterm/pterm"
)

func renderJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func renderTerminal(w io.Writer, r *Report) error {
	var out string
	out += pterm.DefaultSection.Sprintf("Data Breaker Report (%s)", r.GeneratedAt.UTC().Format(time.RFC3339))

	s := r.Summary
	summary := pterm.TableData{
		{"Brokers tracked", strconv.Itoa(s.TotalBrokers)},
		{"Records found", strconv.Itoa(s.TotalRecords)},
		{"Deletion requests", strconv.Itoa(s.TotalDeletions)},
		{"  Pending", strconv.Itoa(s.Pending)},
		{"  Submitted", strconv.Itoa(s.Submitted)},
		{"  In progress", strconv.Itoa(s.InProgress)},
		{"  Completed", strconv.Itoa(s.Completed)},
		{"  Failed/Rejected", strconv.Itoa(s.Failed)},
		{"  Unknown", strconv.Itoa(s.Unknown)},
	}
	table, err := pterm.DefaultTable.WithData(summary).Srender()
	if err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	out += table + "\n"

	if len(r.Records) > 0 {
		data := pterm.TableData{{"Broker", "Type", "Value", "Found At"}}
		for _, rec := range r.Records {
			data = append(data, []string{rec.BrokerID, rec.DataType, rec.DataValue, formatTime(&rec.FoundAt)})
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return fmt.Errorf("render records: %w", err)
		}
		out += pterm.DefaultSection.WithLevel(2).Sprint("Personal Records Found") + table + "\n"
	}

	if len(r.DeletionRequests) > 0 {
		data := pterm.TableData{{"ID", "Broker", "Status", "Submitted", "External Ref"}}
		for _, d := range r.DeletionRequests {
			data = append(data, []string{shortID(d.ID), d.BrokerID, d.Status.String(), formatTime(d.SubmittedAt), deref(d.ExternalRef)})
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return fmt.Errorf("render deletion requests: %w", err)
		}
		out += pterm.DefaultSection.WithLevel(2).Sprint("Deletion Requests") + table + "\n"
	}

	_, err = io.WriteString(w, out)
	return err
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"shortID":    shortID,
	"formatTime": formatTime,
	"deref":      deref,
	"timePtr":    func(t time.Time) *time.Time { return &t },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Data Breaker Report</title>
<style>
  body { font-family: system-ui, sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; color: #1a1a1a; }
  h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
  table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
  th, td { border: 1px solid #ddd; padding: 0.5rem; text-align: left; }
  th { background: #f5f5f5; font-weight: 600; }
  tr:nth-child(even) { background: #fafafa; }
  .summary { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 1rem; margin: 1rem 0; }
  .stat { background: #f5f5f5; padding: 1rem; border-radius: 4px; }
  .stat .value { font-size: 1.5rem; font-weight: 700; }
  .stat .label { color: #666; font-size: 0.875rem; }
</style>
</head>
<body>
<h1>Data Breaker Report</h1>
<p>Generated: {{ formatTime (timePtr .GeneratedAt) }}</p>
<div class="summary">
{{- with .Summary }}
<div class="stat"><div class="value">{{ .TotalBrokers }}</div><div class="label">Brokers Tracked</div></div>
<div class="stat"><div class="value">{{ .TotalRecords }}</div><div class="label">Records Found</div></div>
<div class="stat"><div class="value">{{ .Submitted }}</div><div class="label">Deletions Submitted</div></div>
<div class="stat"><div class="value">{{ .InProgress }}</div><div class="label">Deletions In Progress</div></div>
<div class="stat"><div class="value">{{ .Completed }}</div><div class="label">Deletions Completed</div></div>
<div class="stat"><div class="value">{{ .Failed }}</div><div class="label">Deletions Failed</div></div>
<div class="stat"><div class="value">{{ .Unknown }}</div><div class="label">Deletions Unknown</div></div>
{{- end }}
</div>
{{- if .Records }}
<h2>Personal Records Found</h2>
<table>
<thead><tr><th>Broker</th><th>Type</th><th>Value</th><th>Found At</th></tr></thead>
<tbody>
{{- range .Records }}
<tr><td>{{ .BrokerID }}</td><td>{{ .DataType }}</td><td>{{ .DataValue }}</td><td>{{ formatTime (timePtr .FoundAt) }}</td></tr>
{{- end }}
</tbody></table>
{{- end }}
{{- if .DeletionRequests }}
<h2>Deletion Requests</h2>
<table>
<thead><tr><th>ID</th><th>Broker</th><th>Status</th><th>Submitted</th></tr></thead>
<tbody>
{{- range .DeletionRequests }}
<tr><td>{{ shortID .ID }}</td><td>{{ .BrokerID }}</td><td>{{ .Status }}</td><td>{{ formatTime .SubmittedAt }}</td></tr>
{{- end }}
</tbody></table>
{{- end }}
</body>
</html>
`))

func renderHTML(w io.Writer, r *Report) error {
	if err := htmlTemplate.Execute(w, r); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}
