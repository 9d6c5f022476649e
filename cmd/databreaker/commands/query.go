package commands

import (
	"github.com/spf13/pflag"

	"databreaker/internal/broker/connectors"
	"databreaker/pkg/validation"
)

func bindQueryFlags(fs *pflag.FlagSet, q *connectors.PersonQuery) {
	fs.StringVar(&q.FirstName, "first-name", "", "First name to search for")
	fs.StringVar(&q.LastName, "last-name", "", "Last name to search for")
	fs.StringVar(&q.Email, "email", "", "Email address")
	fs.StringVar(&q.Phone, "phone", "", "Phone number")
	fs.StringVar(&q.City, "city", "", "City for location-based searches")
	fs.StringVar(&q.State, "state", "", "Two-letter state code for location-based searches")
	fs.StringVar(&q.Country, "country", "", "Your country (ISO 3166-1 alpha-2); keeps brokers holding data for it")
}

// prepareQuery normalizes q and validates it.
func prepareQuery(q *connectors.PersonQuery) error {
	q.Normalize()
	return validation.Validate(q)
}

// prepareDeletionQuery normalizes q and checks only the formats of the
// fields that are set.
func prepareDeletionQuery(q *connectors.PersonQuery) error {
	q.Normalize()
	return validation.ValidateExcept(q, connectors.ScanOnlyFields...)
}
