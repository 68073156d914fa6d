package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/johnwards/hubsync/internal/domain"
	"github.com/johnwards/hubsync/internal/sink"
)

type fakeStore struct {
	domain  *domain.Domain
	findErr error
	saves   int
}

func (f *fakeStore) FindOne(context.Context) (*domain.Domain, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.domain, nil
}

func (f *fakeStore) Save(context.Context, *domain.Domain) error {
	f.saves++
	return nil
}

func instantSleep(context.Context, time.Duration) error { return nil }

func TestRunIsolatesPhaseFailures(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	account := &domain.Account{HubID: "1", RefreshToken: "r", TokenExpiresAt: now.Add(time.Hour)}
	st := &fakeStore{domain: &domain.Domain{ID: 1, APIKey: "key", Accounts: []*domain.Account{account}}}

	collected := &collectSink{}
	api := &fakeAPI{
		search: func(_ context.Context, objectType string, _ *domain.SearchRequest) (*domain.SearchResult, error) {
			if objectType == objectTypeCompanies {
				return nil, errors.New("companies down")
			}
			if objectType == objectTypeContacts {
				return pageWithNext("",
					&domain.Object{ID: "1", CreatedAt: now, UpdatedAt: now, Properties: map[string]string{"email": "a@b.com"}},
				), nil
			}
			return &domain.SearchResult{}, nil
		},
	}

	o := &Orchestrator{
		Store:   st,
		NewAPI:  func(string) API { return api },
		NewSink: func(apiKey string) sink.Sink {
			if apiKey != "key" {
				t.Errorf("sink built with wrong api key %q", apiKey)
			}
			return collected
		},
		Log:   zap.NewNop().Sugar(),
		Sleep: instantSleep,
		Now:   func() time.Time { return now },
	}

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("phase failures must not surface from Run: %v", err)
	}

	// The failed companies phase holds its watermark while the later phases
	// still run and advance theirs.
	if !account.LastPulled.Companies.IsZero() {
		t.Errorf("companies watermark advanced despite failure: %v", account.LastPulled.Companies)
	}
	if !account.LastPulled.Contacts.Equal(now) {
		t.Errorf("expected contacts watermark %v, got %v", now, account.LastPulled.Contacts)
	}
	if !account.LastPulled.Meetings.Equal(now) {
		t.Errorf("expected meetings watermark %v, got %v", now, account.LastPulled.Meetings)
	}

	if len(collected.actions) != 1 || collected.actions[0].Identity != "a@b.com" {
		t.Errorf("expected the contact action to be delivered, got %+v", collected.actions)
	}
	if st.saves == 0 {
		t.Error("sync state was never persisted")
	}
}

func TestRunFailsWhenDomainUnavailable(t *testing.T) {
	boom := errors.New("no database")
	o := &Orchestrator{
		Store: &fakeStore{findErr: boom},
		Log:   zap.NewNop().Sugar(),
	}
	if err := o.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected load failure to surface, got %v", err)
	}
}

func TestRunRefreshesTokenPerAccount(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	accounts := []*domain.Account{
		{HubID: "1", RefreshToken: "r1"},
		{HubID: "2", RefreshToken: "r2"},
	}
	st := &fakeStore{domain: &domain.Domain{ID: 1, APIKey: "key", Accounts: accounts}}

	var refreshed []string
	api := &fakeAPI{
		refresh: func(_ context.Context, refreshToken string) (*domain.TokenGrant, error) {
			refreshed = append(refreshed, refreshToken)
			return &domain.TokenGrant{AccessToken: "fresh-" + refreshToken, ExpiresIn: 3600}, nil
		},
	}

	o := &Orchestrator{
		Store:   st,
		NewAPI:  func(string) API { return api },
		NewSink: func(string) sink.Sink { return &collectSink{} },
		Log:     zap.NewNop().Sugar(),
		Sleep:   instantSleep,
		Now:     func() time.Time { return now },
	}

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(refreshed) != 2 || refreshed[0] != "r1" || refreshed[1] != "r2" {
		t.Fatalf("expected one refresh per account, got %v", refreshed)
	}
	if accounts[0].AccessToken != "fresh-r1" || accounts[1].AccessToken != "fresh-r2" {
		t.Errorf("account tokens not rotated: %q %q", accounts[0].AccessToken, accounts[1].AccessToken)
	}
	if want := now.Add(time.Hour); !accounts[0].TokenExpiresAt.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, accounts[0].TokenExpiresAt)
	}
}
