package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"databreaker/internal/broker/report"
)

func newReportCmd(opts *rootOptions) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize findings and deletion progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, opts, format, output)
		},
	}
	cmd.Flags().StringVar(&format, "format", string(report.FormatTerminal), "Output format: terminal, json or html")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to this file instead of stdout")
	return cmd
}

func runReport(cmd *cobra.Command, opts *rootOptions, format, output string) error {
	f, err := report.ParseFormat(format)
	if err != nil {
		return err
	}

	a, err := opts.open(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	rep, err := report.Build(cmd.Context(), a.store, time.Now().UTC())
	if err != nil {
		return err
	}

	if output == "" {
		return rep.Render(cmd.OutOrStdout(), f)
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := rep.Render(file, f); err != nil {
		file.Close() //nolint:errcheck // render error takes precedence
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", output)
	return nil
}
