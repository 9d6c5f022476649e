package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"databreaker/internal/broker/registryfeed"
)

func newRegistryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage the local broker registry",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "update",
			Short: "Fetch the broker registry feed and store every broker",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runRegistryUpdate(cmd, opts)
			},
		},
		&cobra.Command{
			Use:   "info",
			Short: "Show when the registry was last synced",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runRegistryInfo(cmd, opts)
			},
		},
	)
	return cmd
}

func runRegistryUpdate(cmd *cobra.Command, opts *rootOptions) error {
	a, err := opts.open(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Fetching broker registry from %s...\n", a.cfg.Registry.URL)

	syncer := registryfeed.New(a.store, registryfeed.Config{
		URL:     a.cfg.Registry.URL,
		Timeout: a.cfg.Connectors.Timeout,
		Logger:  a.logger,
	})
	res, err := syncer.Sync(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Registry updated: %d broker(s) synced", res.Synced)
	if res.Skipped > 0 {
		fmt.Fprintf(out, ", %d invalid entr(ies) skipped", res.Skipped)
	}
	fmt.Fprintln(out, ".")
	return nil
}

func runRegistryInfo(cmd *cobra.Command, opts *rootOptions) error {
	a, err := opts.open(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	info, err := registryfeed.ReadInfo(cmd.Context(), a.store)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if info.LastFetchedAt == nil {
		fmt.Fprintln(out, "Last updated:  never (run `databreaker registry update`)")
	} else {
		fmt.Fprintf(out, "Last updated:  %s\n", info.LastFetchedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(out, "Brokers known: %d\n", info.Brokers)
	return nil
}
