package commands

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"databreaker/internal/broker/connectors"
	"databreaker/internal/broker/orchestrator"
)

func newScanCmd(opts *rootOptions) *cobra.Command {
	var (
		query   connectors.PersonQuery
		brokers []string
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan data brokers for your personal information",
		Long: `Scan every registered connector, or only those given with --brokers, for
records about the person described by the flags. Found records are stored;
repeated scans never duplicate them.

Examples:
  databreaker scan --first-name Jane --last-name Doe
  databreaker scan --first-name Jane --last-name Doe --state TX --brokers beenverified`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd, opts, query, brokers)
		},
	}
	bindQueryFlags(cmd.Flags(), &query)
	cmd.Flags().StringSliceVar(&brokers, "brokers", nil, "Only scan these connector IDs (comma-separated)")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")
	return cmd
}

func runScan(cmd *cobra.Command, opts *rootOptions, query connectors.PersonQuery, brokers []string) error {
	if err := prepareQuery(&query); err != nil {
		return err
	}

	a, err := opts.open(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.engine.Scan(cmd.Context(), orchestrator.ScanRequest{Query: query, Brokers: brokers})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, id := range res.Unknown {
		fmt.Fprintf(out, "Unknown connector %q ignored.\n", id)
	}
	if res.NoCandidates {
		fmt.Fprintln(out, "No matching connectors found. Available connectors:")
		for _, id := range a.registry.IDs() {
			fmt.Fprintf(out, "  - %s\n", id)
		}
		return nil
	}
	for _, id := range res.Skipped {
		fmt.Fprintf(out, "Skipping %s (no scan capability).\n", id)
	}

	rows := make([][]string, 0, len(res.Scanned))
	for _, id := range res.Scanned {
		status := "ok"
		if err, failed := res.Errors[id]; failed {
			status = "error: " + err.Error()
		}
		rows = append(rows, []string{id, strconv.Itoa(res.PerConnector[id]), status})
	}
	if err := printTable(out, []string{"Connector", "Records", "Result"}, rows); err != nil {
		return err
	}

	if err := printStoredRecords(cmd, a); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nRecords found this scan: %d (%d new), %d connector(s) failed.\n",
		res.RecordsFound, res.NewRecords, res.Failed())
	return nil
}

func printStoredRecords(cmd *cobra.Command, a *app) error {
	recs, err := a.store.ListPersonalRecords(cmd.Context(), "")
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].BrokerID < recs[j].BrokerID })

	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{r.ID, r.BrokerID, r.DataType, r.DataValue, orDash(r.ProfileURL)})
	}
	fmt.Fprintln(cmd.OutOrStdout(), "\nStored records:")
	return printTable(cmd.OutOrStdout(), []string{"ID", "Broker", "Type", "Value", "Profile URL"}, rows)
}
