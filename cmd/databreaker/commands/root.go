// Package commands implements the databreaker command line.
package commands

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	verbosity  int
}

// NewRootCmd builds the command tree. Each call returns an independent tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "databreaker",
		Short: "Find and remove your personal data from data brokers",
		Long: `databreaker scans data broker sites for your personal information,
files deletion requests and tracks them until the broker confirms removal.

Examples:
  databreaker registry update                              # Sync the broker registry
  databreaker scan --first-name Jane --last-name Doe       # Scan every connector
  databreaker delete --all                                 # Request deletion of everything found
  databreaker status                                       # Poll brokers for deletion progress
  databreaker report --format html --output report.html    # Write an HTML report`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to a config file (YAML, TOML or JSON)")
	root.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", "Increase log verbosity (-v, -vv)")

	root.AddCommand(
		newRegistryCmd(opts),
		newBrokerCmd(opts),
		newScanCmd(opts),
		newDeleteCmd(opts),
		newStatusCmd(opts),
		newReportCmd(opts),
		newServeCmd(opts),
		newConnectorsCmd(opts),
	)
	return root
}
