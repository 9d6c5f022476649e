package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"databreaker/internal/broker/connectors"
	"databreaker/internal/broker/orchestrator"
)

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	var (
		query connectors.PersonQuery
		sel   orchestrator.Selector
	)
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Request deletion of stored records",
		Long: `Send one deletion request per broker for the selected records. Identity
flags are optional and forwarded to connectors that need them.

Examples:
  databreaker delete --all
  databreaker delete --broker dummy-broker
  databreaker delete --record 3f1c2b9e-...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDelete(cmd, opts, query, sel)
		},
	}
	cmd.Flags().BoolVar(&sel.All, "all", false, "Delete every stored record")
	cmd.Flags().StringVar(&sel.BrokerID, "broker", "", "Delete records stored for this broker")
	cmd.Flags().StringVar(&sel.RecordID, "record", "", "Delete a single record by ID")
	bindQueryFlags(cmd.Flags(), &query)
	cmd.MarkFlagsMutuallyExclusive("all", "broker", "record")
	cmd.MarkFlagsOneRequired("all", "broker", "record")
	return cmd
}

func runDelete(cmd *cobra.Command, opts *rootOptions, query connectors.PersonQuery, sel orchestrator.Selector) error {
	if err := prepareDeletionQuery(&query); err != nil {
		return err
	}

	a, err := opts.open(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.engine.RequestDeletions(cmd.Context(), orchestrator.DeletionRequestInput{Query: query, Selector: sel})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, id := range res.BrokerIDs() {
		o := res.Brokers[id]
		if o.Submitted {
			fmt.Fprintf(out, "%s: submitted %d record(s) (ref: %s)\n", id, o.Records, o.ExternalRef)
			continue
		}
		fmt.Fprintf(out, "%s: failed for %d record(s): %v\n", id, o.Records, o.Err)
	}
	fmt.Fprintf(out, "\nDeletion requests: %d submitted, %d failed\n", res.Submitted, res.Failed)
	return nil
}
