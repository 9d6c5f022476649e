package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"databreaker/internal/broker/models"
	"databreaker/internal/broker/orchestrator"
	dErrors "databreaker/pkg/domain-errors"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var brokerID, filter string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Poll brokers for deletion progress and show every request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, opts, brokerID, filter)
		},
	}
	cmd.Flags().StringVar(&brokerID, "broker", "", "Only requests for this broker")
	cmd.Flags().StringVar(&filter, "filter", "", "Only show requests in this status (pending, submitted, in_progress, completed, failed, rejected, unknown)")
	return cmd
}

func runStatus(cmd *cobra.Command, opts *rootOptions, brokerID, filter string) error {
	status := models.DeletionStatus(strings.ToLower(strings.TrimSpace(filter)))
	if status != "" && !status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown status %q", filter))
	}

	a, err := opts.open(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.engine.Reconcile(cmd.Context(), orchestrator.ReconcileRequest{BrokerID: brokerID, Status: status})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for id, checkErr := range res.Errors {
		fmt.Fprintf(out, "Could not check status for %s: %v\n", shortID(id), checkErr)
	}
	if len(res.Requests) == 0 {
		fmt.Fprintln(out, "No deletion requests found.")
		return nil
	}

	rows := make([][]string, 0, len(res.Requests))
	for _, r := range res.Requests {
		rows = append(rows, []string{
			shortID(r.ID), r.BrokerID, string(r.Status), timeOrDash(r.SubmittedAt), orDash(r.ExternalRef),
		})
	}
	if err := printTable(out, []string{"ID", "Broker", "Status", "Submitted", "External Ref"}, rows); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nChecked %d reference(s), %d request(s) updated.\n", res.Checked, res.Updated)
	return nil
}
