package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/johnwards/hubsync/internal/database"
	"github.com/johnwards/hubsync/internal/store"
	"github.com/johnwards/hubsync/internal/testhelpers"
)

func newStore(t *testing.T) (*store.SQLiteDomainStore, *sql.DB) {
	t.Helper()

	db := testhelpers.NewTestDB(t)
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store.NewSQLiteDomainStore(db), db
}

func seedDomain(t *testing.T, db *sql.DB) {
	t.Helper()

	ctx := context.Background()
	_, err := db.ExecContext(ctx,
		`INSERT INTO domains (api_key) VALUES ('sink-key')`)
	if err != nil {
		t.Fatalf("seed domain: %v", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO accounts (hub_id, domain_id, access_token, refresh_token) VALUES
		 ('100', 1, 'access-100', 'refresh-100'),
		 ('200', 1, 'access-200', 'refresh-200')`)
	if err != nil {
		t.Fatalf("seed accounts: %v", err)
	}
}

func TestFindOneEmpty(t *testing.T) {
	s, _ := newStore(t)

	_, err := s.FindOne(context.Background())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindOneLoadsAccounts(t *testing.T) {
	s, db := newStore(t)
	seedDomain(t, db)

	d, err := s.FindOne(context.Background())
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	if d.ID != 1 || d.APIKey != "sink-key" {
		t.Errorf("unexpected domain: %+v", d)
	}
	if len(d.Accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(d.Accounts))
	}
	a := d.Accounts[0]
	if a.HubID != "100" || a.AccessToken != "access-100" || a.RefreshToken != "refresh-100" {
		t.Errorf("unexpected account: %+v", a)
	}
	if !a.TokenExpiresAt.IsZero() {
		t.Errorf("expected zero expiry for fresh account, got %v", a.TokenExpiresAt)
	}
	if !a.LastPulled.Companies.IsZero() || !a.LastPulled.Contacts.IsZero() || !a.LastPulled.Meetings.IsZero() {
		t.Errorf("expected zero watermarks for fresh account, got %+v", a.LastPulled)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	s, db := newStore(t)
	seedDomain(t, db)
	ctx := context.Background()

	d, err := s.FindOne(ctx)
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	expiry := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	mark := time.Date(2024, 6, 1, 12, 0, 0, 123456000, time.UTC)
	a := d.Accounts[0]
	a.AccessToken = "rotated"
	a.TokenExpiresAt = expiry
	a.LastPulled.Companies = mark
	a.LastPulled.Contacts = mark.Add(time.Second)

	if err := s.Save(ctx, d); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := s.FindOne(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := reloaded.Accounts[0]
	if got.AccessToken != "rotated" {
		t.Errorf("expected rotated token, got %q", got.AccessToken)
	}
	if !got.TokenExpiresAt.Equal(expiry) {
		t.Errorf("expected expiry %v, got %v", expiry, got.TokenExpiresAt)
	}
	if !got.LastPulled.Companies.Equal(mark) {
		t.Errorf("expected companies watermark %v, got %v", mark, got.LastPulled.Companies)
	}
	if !got.LastPulled.Contacts.Equal(mark.Add(time.Second)) {
		t.Errorf("expected contacts watermark %v, got %v", mark.Add(time.Second), got.LastPulled.Contacts)
	}
	if !got.LastPulled.Meetings.IsZero() {
		t.Errorf("untouched watermark must stay zero, got %v", got.LastPulled.Meetings)
	}

	// The other account is written too but keeps its original values.
	other := reloaded.Accounts[1]
	if other.AccessToken != "access-200" {
		t.Errorf("sibling account mutated: %+v", other)
	}
}
