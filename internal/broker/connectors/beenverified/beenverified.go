// Package beenverified implements a scan-only connector against the
// BeenVerified opt-out search.
//
// Deletion is not offered: the opt-out form requires CAPTCHA interaction.
package beenverified

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"databreaker/internal/broker/connectors"
	"databreaker/internal/broker/connectors/adapters"
)

const (
	ID   = "beenverified"
	name = "BeenVerified"

	DefaultSearchURL   = "https://www.beenverified.com/svc/optout/search/optouts"
	DefaultFallbackURL = "https://www.beenverified.com/app/optout/search"
)

// Config overrides endpoints and transport, mostly for tests.
type Config struct {
	SearchURL         string
	FallbackURL       string
	HTTPClient        adapters.HTTPDoer
	RequestsPerMinute int
	Logger            *zap.Logger
}

type Connector struct {
	http        *adapters.HTTPClient
	searchURL   string
	fallbackURL string
	logger      *zap.Logger
}

// New builds the connector with production endpoints.
func New() (connectors.Connector, error) {
	return NewWithConfig(Config{})
}

// NewWithConfig builds the connector, filling unset fields with defaults.
func NewWithConfig(cfg Config) (connectors.Connector, error) {
	if cfg.SearchURL == "" {
		cfg.SearchURL = DefaultSearchURL
	}
	if cfg.FallbackURL == "" {
		cfg.FallbackURL = DefaultFallbackURL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Connector{
		http: adapters.NewHTTPClient(adapters.HTTPClientConfig{
			ConnectorID:       ID,
			HTTPClient:        cfg.HTTPClient,
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
		searchURL:   cfg.SearchURL,
		fallbackURL: cfg.FallbackURL,
		logger:      cfg.Logger.With(zap.String("connector_id", ID)),
	}, nil
}

func (c *Connector) ID() string   { return ID }
func (c *Connector) Name() string { return name }

func (c *Connector) Capabilities() connectors.Capabilities {
	return connectors.Capabilities{CanScan: true}
}

func (c *Connector) HomeCountry() string     { return "US" }
func (c *Connector) DataCountries() []string { return []string{"US"} }

// Scan queries the JSON opt-out search first and falls back to the HTML
// search page when the JSON endpoint fails or yields nothing usable.
func (c *Connector) Scan(ctx context.Context, q connectors.PersonQuery) ([]connectors.FoundRecord, error) {
	state := strings.TrimSpace(q.State)
	if state == "" {
		return nil, connectors.MissingField(ID, "BeenVerified requires a state abbreviation (e.g. --state NY)")
	}
	params := url.Values{
		"firstName": {q.FirstName},
		"lastName":  {q.LastName},
		"state":     {state},
	}

	resp, err := c.http.Get(ctx, c.searchURL, params, "application/json")
	switch {
	case err != nil:
		c.logger.Debug("json search failed, trying html fallback", zap.Error(err))
	default:
		records, perr := parseSearchResponse(resp.Body)
		if perr == nil && len(records) > 0 {
			return records, nil
		}
		c.logger.Debug("json search returned no parseable records, trying html fallback", zap.NamedError("parse_error", perr))
	}

	if _, err := c.http.Get(ctx, c.fallbackURL, params, "text/html"); err != nil {
		return nil, err
	}
	c.logger.Warn("html fallback received a response but html parsing is not implemented")
	return []connectors.FoundRecord{}, nil
}

func (c *Connector) RequestDeletion(context.Context, connectors.PersonQuery, []connectors.FoundRecord) (connectors.DeletionSubmission, error) {
	return connectors.DeletionSubmission{}, connectors.NewError(connectors.ErrorUnsupportedCapability, ID,
		"deletion requires CAPTCHA interaction that cannot be automated", nil)
}

func (c *Connector) CheckDeletionStatus(context.Context, string) (connectors.DeletionStatusCheck, error) {
	return connectors.DeletionStatusCheck{}, connectors.Unsupported(ID, "deletion status checking")
}

type searchResponse struct {
	Records []record `json:"records"`
	// Some API revisions use "results" instead of "records".
	Results []record `json:"results"`
}

type record struct {
	FirstName  *string  `json:"first_name"`
	LastName   *string  `json:"last_name"`
	Age        *uint32  `json:"age"`
	City       *string  `json:"city"`
	State      *string  `json:"state"`
	Addresses  []string `json:"addresses"`
	Relatives  []string `json:"relatives"`
	ProfileURL *string  `json:"profile_url"`
}

func parseSearchResponse(body []byte) ([]connectors.FoundRecord, error) {
	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, connectors.NewError(connectors.ErrorBadData, ID, "failed to decode search response", err)
	}
	recs := parsed.Records
	if len(recs) == 0 {
		recs = parsed.Results
	}
	var out []connectors.FoundRecord
	for _, r := range recs {
		out = append(out, r.toFoundRecords()...)
	}
	return out, nil
}

func (r record) toFoundRecords() []connectors.FoundRecord {
	var out []connectors.FoundRecord
	profile := deref(r.ProfileURL)
	add := func(kind, value string) {
		out = append(out, connectors.FoundRecord{DataType: kind, DataValue: value, ProfileURL: profile})
	}

	first, last := deref(r.FirstName), deref(r.LastName)
	switch {
	case first != "" && last != "":
		add(connectors.KindName, first+" "+last)
	case first != "":
		add(connectors.KindName, first)
	case last != "":
		add(connectors.KindName, last)
	}

	if r.Age != nil {
		add(connectors.KindAge, strconv.FormatUint(uint64(*r.Age), 10))
	}

	for _, a := range r.Addresses {
		add(connectors.KindAddress, a)
	}
	if len(r.Addresses) == 0 && r.City != nil && r.State != nil {
		add(connectors.KindAddress, *r.City+", "+*r.State)
	}

	if len(r.Relatives) > 0 {
		add(connectors.KindRelatives, strings.Join(r.Relatives, ", "))
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ connectors.Connector = (*Connector)(nil)
