package commands

import (
	"github.com/spf13/cobra"
)

func newConnectorsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "connectors",
		Short: "List compiled-in connectors and their capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.setup()
			if err != nil {
				return err
			}
			defer a.Close()

			all := a.registry.All()
			rows := make([][]string, 0, len(all))
			for _, c := range all {
				caps := c.Capabilities()
				home := c.HomeCountry()
				rows = append(rows, []string{
					c.ID(), c.Name(),
					yesNo(caps.CanScan), yesNo(caps.CanDelete), yesNo(caps.CanCheckStatus),
					orDash(&home), joinOrDash(c.DataCountries()),
				})
			}
			return printTable(cmd.OutOrStdout(),
				[]string{"ID", "Name", "Scan", "Delete", "Status", "Home", "Data countries"}, rows)
		},
	}
}
