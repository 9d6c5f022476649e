package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"databreaker/internal/broker/models"
	"databreaker/internal/broker/store"
	dErrors "databreaker/pkg/domain-errors"
)

func newBrokerCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "broker",
		Short: "List and inspect known data brokers",
	}

	var filter models.BrokerFilter
	list := &cobra.Command{
		Use:   "list",
		Short: "List known brokers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBrokerList(cmd, opts, filter)
		},
	}
	list.Flags().StringVar(&filter.Category, "category", "", "Only brokers in this category")
	list.Flags().StringVar(&filter.Country, "country", "", "Only brokers based in this country (ISO 3166-1 alpha-2)")
	list.Flags().StringVar(&filter.DataCountry, "data-country", "", "Only brokers holding data about residents of this country")

	info := &cobra.Command{
		Use:   "info <id>",
		Short: "Show details about one broker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrokerInfo(cmd, opts, args[0])
		},
	}

	cmd.AddCommand(list, info)
	return cmd
}

func runBrokerList(cmd *cobra.Command, opts *rootOptions, filter models.BrokerFilter) error {
	a, err := opts.open(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	filter.Category = strings.TrimSpace(filter.Category)
	filter.Country = strings.TrimSpace(filter.Country)
	filter.DataCountry = strings.TrimSpace(filter.DataCountry)

	brokers, err := a.store.ListBrokers(cmd.Context(), filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(brokers) == 0 {
		fmt.Fprintln(out, "No brokers found. Run `databreaker registry update` to fetch the broker registry.")
		return nil
	}

	rows := make([][]string, 0, len(brokers))
	for _, b := range brokers {
		rows = append(rows, []string{b.ID, b.Name, orDash(b.Category), orDash(b.Country), orDash(b.Website)})
	}
	return printTable(out, []string{"ID", "Name", "Category", "Country", "Website"}, rows)
}

func runBrokerInfo(cmd *cobra.Command, opts *rootOptions, id string) error {
	a, err := opts.open(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	b, err := a.store.GetBroker(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return dErrors.New(dErrors.CodeBrokerNotFound, fmt.Sprintf("broker %q not found", id))
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:             %s\n", b.ID)
	fmt.Fprintf(out, "Name:           %s\n", b.Name)
	fmt.Fprintf(out, "Website:        %s\n", orDash(b.Website))
	fmt.Fprintf(out, "Description:    %s\n", orDash(b.Description))
	fmt.Fprintf(out, "Category:       %s\n", orDash(b.Category))
	fmt.Fprintf(out, "Connector:      %s\n", orDash(b.Connector))
	fmt.Fprintf(out, "Country:        %s\n", orDash(b.Country))
	fmt.Fprintf(out, "Data countries: %s\n", joinOrDash(b.DataCountries))
	fmt.Fprintf(out, "Updated:        %s\n", timeOrDash(&b.UpdatedAt))
	return nil
}
