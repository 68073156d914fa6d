package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/johnwards/hubsync/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// timeFormat is how timestamps are stored in SQLite.
const timeFormat = time.RFC3339Nano

// DomainStore defines persistence for the tenant domain and its accounts.
// FindOne loads the single domain record the worker operates on; Save writes
// back mutated account tokens and watermarks.
type DomainStore interface {
	FindOne(ctx context.Context) (*domain.Domain, error)
	Save(ctx context.Context, d *domain.Domain) error
}

// SQLiteDomainStore implements DomainStore backed by SQLite.
type SQLiteDomainStore struct {
	db *sql.DB
}

// NewSQLiteDomainStore creates a new SQLiteDomainStore.
func NewSQLiteDomainStore(db *sql.DB) *SQLiteDomainStore {
	return &SQLiteDomainStore{db: db}
}

// FindOne returns the first domain record with all of its accounts attached.
func (s *SQLiteDomainStore) FindOne(ctx context.Context) (*domain.Domain, error) {
	var d domain.Domain
	err := s.db.QueryRowContext(ctx,
		`SELECT id, api_key FROM domains ORDER BY id ASC LIMIT 1`,
	).Scan(&d.ID, &d.APIKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("domain: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find domain: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT hub_id, access_token, refresh_token, token_expires_at,
		        last_pulled_companies, last_pulled_contacts, last_pulled_meetings
		 FROM accounts WHERE domain_id = ? ORDER BY hub_id ASC`, d.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var a domain.Account
		var expiresAt, companies, contacts, meetings sql.NullString
		if err := rows.Scan(&a.HubID, &a.AccessToken, &a.RefreshToken, &expiresAt,
			&companies, &contacts, &meetings); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.TokenExpiresAt = parseTime(expiresAt)
		a.LastPulled = domain.Watermarks{
			Companies: parseTime(companies),
			Contacts:  parseTime(contacts),
			Meetings:  parseTime(meetings),
		}
		d.Accounts = append(d.Accounts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("account rows: %w", err)
	}

	return &d, nil
}

// Save persists the domain's accounts: tokens, token expiry, and watermarks.
// The domain row itself (id, api_key) is never mutated by a sync run.
func (s *SQLiteDomainStore) Save(ctx context.Context, d *domain.Domain) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}

	for _, a := range d.Accounts {
		_, err := tx.ExecContext(ctx,
			`UPDATE accounts SET access_token = ?, refresh_token = ?, token_expires_at = ?,
			        last_pulled_companies = ?, last_pulled_contacts = ?, last_pulled_meetings = ?
			 WHERE hub_id = ? AND domain_id = ?`,
			a.AccessToken, a.RefreshToken, formatTime(a.TokenExpiresAt),
			formatTime(a.LastPulled.Companies), formatTime(a.LastPulled.Contacts), formatTime(a.LastPulled.Meetings),
			a.HubID, d.ID,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("save account %s: %w", a.HubID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE domains SET updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now') WHERE id = ?`, d.ID,
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("touch domain: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func parseTime(v sql.NullString) time.Time {
	if !v.Valid || v.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeFormat, v.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeFormat)
}
