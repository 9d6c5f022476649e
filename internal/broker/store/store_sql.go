package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"databreaker/internal/broker/models"
	"databreaker/internal/platform/database"
)

// SQLStore persists to SQLite or PostgreSQL through database/sql. A single
// mutex serializes each logical operation; no transaction spans a
// connector call.
type SQLStore struct {
	mu   sync.Mutex
	pool *database.Pool
	db   *sql.DB
}

// NewSQLStore wraps a migrated pool.
func NewSQLStore(pool *database.Pool) *SQLStore {
	return &SQLStore{pool: pool, db: pool.DB()}
}

const brokerColumns = `id, name, website, description, category, connector, country, data_countries, registry_updated_at, created_at, updated_at`

func (s *SQLStore) UpsertBroker(ctx context.Context, b *models.Broker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := s.pool.Rebind(`
		INSERT INTO brokers (` + brokerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			website = COALESCE(excluded.website, brokers.website),
			description = COALESCE(excluded.description, brokers.description),
			category = COALESCE(excluded.category, brokers.category),
			connector = COALESCE(excluded.connector, brokers.connector),
			country = COALESCE(excluded.country, brokers.country),
			data_countries = COALESCE(excluded.data_countries, brokers.data_countries),
			registry_updated_at = COALESCE(excluded.registry_updated_at, brokers.registry_updated_at),
			updated_at = excluded.updated_at
	`)
	if _, err := s.db.ExecContext(ctx, query, brokerArgs(b)...); err != nil {
		return fmt.Errorf("upsert broker %s: %w", b.ID, err)
	}
	return nil
}

func (s *SQLStore) EnsureBroker(ctx context.Context, b *models.Broker) (*models.Broker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := s.pool.Rebind(`
		INSERT INTO brokers (` + brokerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`)
	if _, err := s.db.ExecContext(ctx, query, brokerArgs(b)...); err != nil {
		return nil, fmt.Errorf("ensure broker %s: %w", b.ID, err)
	}
	return s.getBroker(ctx, b.ID)
}

func (s *SQLStore) GetBroker(ctx context.Context, id string) (*models.Broker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getBroker(ctx, id)
}

func (s *SQLStore) getBroker(ctx context.Context, id string) (*models.Broker, error) {
	row := s.db.QueryRowContext(ctx, s.pool.Rebind(`SELECT `+brokerColumns+` FROM brokers WHERE id = ?`), id)
	b, err := scanBroker(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get broker %s: %w", id, err)
	}
	return b, nil
}

func (s *SQLStore) ListBrokers(ctx context.Context, filter models.BrokerFilter) ([]*models.Broker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		where []string
		args  []any
	)
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Country != "" {
		where = append(where, "UPPER(country) = UPPER(?)")
		args = append(args, filter.Country)
	}
	query := `SELECT ` + brokerColumns + ` FROM brokers`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name, id"

	rows, err := s.db.QueryContext(ctx, s.pool.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list brokers: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []*models.Broker
	for rows.Next() {
		b, err := scanBroker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan broker: %w", err)
		}
		// data_countries is a delimited list; filter after decoding.
		if filter.DataCountry != "" && !b.HasDataCountry(filter.DataCountry) {
			continue
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list brokers: %w", err)
	}
	return out, nil
}

func (s *SQLStore) UpsertPersonalRecord(ctx context.Context, rec *models.PersonalRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposed := rec.ID
	if proposed == "" {
		proposed = uuid.NewString()
	}
	query := s.pool.Rebind(`
		INSERT INTO personal_records (id, broker_id, data_type, data_value, profile_url, raw_json, found_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (broker_id, data_type, data_value) DO UPDATE SET
			profile_url = excluded.profile_url,
			raw_json = excluded.raw_json,
			found_at = excluded.found_at
		RETURNING id
	`)
	var id string
	err := s.db.QueryRowContext(ctx, query,
		proposed, rec.BrokerID, rec.DataType, rec.DataValue,
		rec.ProfileURL, rec.RawJSON, formatTime(rec.FoundAt),
	).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, ErrMissingBroker
		}
		return false, fmt.Errorf("upsert personal record: %w", err)
	}
	rec.ID = id
	return id == proposed, nil
}

const recordColumns = `id, broker_id, data_type, data_value, profile_url, raw_json, found_at`

func (s *SQLStore) GetPersonalRecord(ctx context.Context, id string) (*models.PersonalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, s.pool.Rebind(`SELECT `+recordColumns+` FROM personal_records WHERE id = ?`), id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get personal record %s: %w", id, err)
	}
	return r, nil
}

func (s *SQLStore) ListPersonalRecords(ctx context.Context, brokerID string) ([]*models.PersonalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT ` + recordColumns + ` FROM personal_records`
	var args []any
	if brokerID != "" {
		query += " WHERE broker_id = ?"
		args = append(args, brokerID)
	}
	query += " ORDER BY broker_id, data_type, data_value"

	rows, err := s.db.QueryContext(ctx, s.pool.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list personal records: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []*models.PersonalRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan personal record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list personal records: %w", err)
	}
	return out, nil
}

const deletionColumns = `id, broker_id, personal_record_id, status, submitted_at, completed_at, error_message, external_ref, created_at, updated_at`

func (s *SQLStore) CreateDeletionRequests(ctx context.Context, reqs []*models.DeletionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create deletion requests: %w", err)
	}
	query := s.pool.Rebind(`INSERT INTO deletion_requests (` + deletionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, r := range reqs {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, query,
			r.ID, r.BrokerID, r.PersonalRecordID, string(r.Status),
			formatTimePtr(r.SubmittedAt), formatTimePtr(r.CompletedAt),
			r.ErrorMessage, r.ExternalRef,
			formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
		); err != nil {
			tx.Rollback() //nolint:errcheck // returning the insert error
			if isForeignKeyViolation(err) {
				return ErrMissingBroker
			}
			return fmt.Errorf("insert deletion request: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit deletion requests: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateDeletionRequest(ctx context.Context, r *models.DeletionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, s.pool.Rebind(`
		UPDATE deletion_requests
		SET status = ?, submitted_at = ?, completed_at = ?, error_message = ?, external_ref = ?, updated_at = ?
		WHERE id = ?
	`),
		string(r.Status), formatTimePtr(r.SubmittedAt), formatTimePtr(r.CompletedAt),
		r.ErrorMessage, r.ExternalRef, formatTime(r.UpdatedAt), r.ID,
	)
	if err != nil {
		return fmt.Errorf("update deletion request %s: %w", r.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update deletion request %s: %w", r.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) ListDeletionRequests(ctx context.Context, brokerID string) ([]*models.DeletionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT ` + deletionColumns + ` FROM deletion_requests`
	var args []any
	if brokerID != "" {
		query += " WHERE broker_id = ?"
		args = append(args, brokerID)
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, s.pool.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list deletion requests: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []*models.DeletionRequest
	for rows.Next() {
		d, err := scanDeletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deletion request: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list deletion requests: %w", err)
	}
	return out, nil
}

func (s *SQLStore) CountDeletionsByStatus(ctx context.Context) (models.StatusCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM deletion_requests GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count deletion requests: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	counts := make(models.StatusCounts)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[models.DeletionStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count deletion requests: %w", err)
	}
	return counts, nil
}

func (s *SQLStore) GetMeta(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var v string
	err := s.db.QueryRowContext(ctx, s.pool.Rebind(`SELECT value FROM registry_meta WHERE key = ?`), key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get meta %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLStore) SetMeta(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, s.pool.Rebind(`
		INSERT INTO registry_meta (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`), key, value)
	if err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func brokerArgs(b *models.Broker) []any {
	name := b.Name
	if name == "" {
		name = b.ID
	}
	return []any{
		b.ID, name, b.Website, b.Description, b.Category, b.Connector, b.Country,
		joinCountries(b.DataCountries), formatTimePtr(b.RegistryUpdatedAt),
		formatTime(b.CreatedAt), formatTime(b.UpdatedAt),
	}
}

func scanBroker(row rowScanner) (*models.Broker, error) {
	var (
		b                                                  models.Broker
		website, description, category, connector, country sql.NullString
		dataCountries, registryUpdatedAt                   sql.NullString
		createdAt, updatedAt                               string
	)
	if err := row.Scan(&b.ID, &b.Name, &website, &description, &category, &connector, &country,
		&dataCountries, &registryUpdatedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	b.Website = nullStr(website)
	b.Description = nullStr(description)
	b.Category = nullStr(category)
	b.Connector = nullStr(connector)
	b.Country = nullStr(country)
	b.DataCountries = splitCountries(dataCountries)
	b.RegistryUpdatedAt = parseTimePtr(registryUpdatedAt)
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	return &b, nil
}

func scanRecord(row rowScanner) (*models.PersonalRecord, error) {
	var (
		r                   models.PersonalRecord
		profileURL, rawJSON sql.NullString
		foundAt             string
	)
	if err := row.Scan(&r.ID, &r.BrokerID, &r.DataType, &r.DataValue, &profileURL, &rawJSON, &foundAt); err != nil {
		return nil, err
	}
	r.ProfileURL = nullStr(profileURL)
	r.RawJSON = nullStr(rawJSON)
	r.FoundAt = parseTime(foundAt)
	return &r, nil
}

func scanDeletion(row rowScanner) (*models.DeletionRequest, error) {
	var (
		d                                  models.DeletionRequest
		recordID, submittedAt, completedAt sql.NullString
		errorMessage, externalRef          sql.NullString
		status, createdAt, updatedAt       string
	)
	if err := row.Scan(&d.ID, &d.BrokerID, &recordID, &status, &submittedAt, &completedAt,
		&errorMessage, &externalRef, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	d.PersonalRecordID = nullStr(recordID)
	d.Status = models.DeletionStatus(status)
	d.SubmittedAt = parseTimePtr(submittedAt)
	d.CompletedAt = parseTimePtr(completedAt)
	d.ErrorMessage = nullStr(errorMessage)
	d.ExternalRef = nullStr(externalRef)
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	return &d, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimePtr(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func joinCountries(cs []string) *string {
	if cs == nil {
		return nil
	}
	v := strings.Join(cs, ",")
	return &v
}

func splitCountries(ns sql.NullString) []string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	parts := strings.Split(ns.String, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isForeignKeyViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

var _ Store = (*SQLStore)(nil)
