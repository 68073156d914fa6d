package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/johnwards/hubsync/internal/domain"
)

type fakeAPI struct {
	search     func(ctx context.Context, objectType string, req *domain.SearchRequest) (*domain.SearchResult, error)
	batchAssoc func(ctx context.Context, fromType, toType string, ids []string) ([]domain.AssociationPair, error)
	listAssoc  func(ctx context.Context, fromType, fromID, toType string) ([]domain.ObjectRef, error)
	batchRead  func(ctx context.Context, objectType string, ids, properties []string) ([]*domain.Object, error)
	refresh    func(ctx context.Context, refreshToken string) (*domain.TokenGrant, error)
	token      string
}

func (f *fakeAPI) Search(ctx context.Context, objectType string, req *domain.SearchRequest) (*domain.SearchResult, error) {
	if f.search == nil {
		return &domain.SearchResult{}, nil
	}
	return f.search(ctx, objectType, req)
}

func (f *fakeAPI) BatchReadAssociations(ctx context.Context, fromType, toType string, ids []string) ([]domain.AssociationPair, error) {
	if f.batchAssoc == nil {
		return nil, nil
	}
	return f.batchAssoc(ctx, fromType, toType, ids)
}

func (f *fakeAPI) ListAssociations(ctx context.Context, fromType, fromID, toType string) ([]domain.ObjectRef, error) {
	if f.listAssoc == nil {
		return nil, nil
	}
	return f.listAssoc(ctx, fromType, fromID, toType)
}

func (f *fakeAPI) BatchReadObjects(ctx context.Context, objectType string, ids, properties []string) ([]*domain.Object, error) {
	if f.batchRead == nil {
		return nil, nil
	}
	return f.batchRead(ctx, objectType, ids, properties)
}

func (f *fakeAPI) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenGrant, error) {
	if f.refresh == nil {
		return &domain.TokenGrant{AccessToken: "fresh", ExpiresIn: 3600}, nil
	}
	return f.refresh(ctx, refreshToken)
}

func (f *fakeAPI) SetAccessToken(token string) { f.token = token }

// noSleep records requested backoff delays without waiting.
func noSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func testRetrier(api API, delays *[]time.Duration, now time.Time) *Retrier {
	return &Retrier{
		API:   api,
		Log:   zap.NewNop().Sugar(),
		Sleep: noSleep(delays),
		Now:   func() time.Time { return now },
	}
}

func TestDoFirstAttemptSucceeds(t *testing.T) {
	var delays []time.Duration
	r := testRetrier(&fakeAPI{}, &delays, time.Now())
	account := &domain.Account{HubID: "1"}

	calls := 0
	out, err := Do(context.Background(), r, account, func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" {
		t.Errorf("expected ok, got %q", out)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if len(delays) != 0 {
		t.Errorf("expected no backoff, got %v", delays)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	var delays []time.Duration
	r := testRetrier(&fakeAPI{}, &delays, time.Now())
	account := &domain.Account{HubID: "1"}

	calls := 0
	_, err := Do(context.Background(), r, account, func(context.Context) (string, error) {
		calls++
		return "", errors.New("boom")
	})
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", err)
	}
	if calls != 5 {
		t.Errorf("expected 5 attempts, got %d", calls)
	}

	want := []time.Duration{10 * time.Second, 20 * time.Second, 40 * time.Second, 80 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("expected %d backoffs, got %v", len(want), delays)
	}
	for i, d := range want {
		if delays[i] != d {
			t.Errorf("backoff %d: expected %v, got %v", i, d, delays[i])
		}
	}
}

func TestDoRecoversAfterFailures(t *testing.T) {
	var delays []time.Duration
	r := testRetrier(&fakeAPI{}, &delays, time.Now())
	account := &domain.Account{HubID: "1"}

	calls := 0
	out, err := Do(context.Background(), r, account, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != 42 {
		t.Errorf("expected 42, got %d", out)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if len(delays) != 2 {
		t.Errorf("expected 2 backoffs, got %v", delays)
	}
}

func TestDoRefreshesExpiredToken(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	refreshed := 0
	api := &fakeAPI{
		refresh: func(_ context.Context, refreshToken string) (*domain.TokenGrant, error) {
			refreshed++
			if refreshToken != "refresh-1" {
				t.Errorf("unexpected refresh token %q", refreshToken)
			}
			return &domain.TokenGrant{AccessToken: "fresh", ExpiresIn: 1800}, nil
		},
	}

	var delays []time.Duration
	r := testRetrier(api, &delays, now)
	account := &domain.Account{
		HubID:          "1",
		AccessToken:    "stale",
		RefreshToken:   "refresh-1",
		TokenExpiresAt: now.Add(-time.Minute),
	}

	calls := 0
	_, err := Do(context.Background(), r, account, func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("expired")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refreshed != 1 {
		t.Errorf("expected 1 refresh, got %d", refreshed)
	}
	if account.AccessToken != "fresh" {
		t.Errorf("account token not updated: %q", account.AccessToken)
	}
	if api.token != "fresh" {
		t.Errorf("session token not updated: %q", api.token)
	}
	if want := now.Add(1800 * time.Second); !account.TokenExpiresAt.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, account.TokenExpiresAt)
	}
}

func TestDoSkipsRefreshWhenTokenValid(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	refreshed := 0
	api := &fakeAPI{
		refresh: func(context.Context, string) (*domain.TokenGrant, error) {
			refreshed++
			return &domain.TokenGrant{AccessToken: "fresh", ExpiresIn: 1800}, nil
		},
	}

	var delays []time.Duration
	r := testRetrier(api, &delays, now)
	account := &domain.Account{HubID: "1", TokenExpiresAt: now.Add(time.Hour)}

	calls := 0
	_, err := Do(context.Background(), r, account, func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refreshed != 0 {
		t.Errorf("expected no refresh, got %d", refreshed)
	}
}
