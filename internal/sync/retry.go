package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/johnwards/hubsync/internal/domain"
	"github.com/johnwards/hubsync/internal/metrics"
)

const (
	// maxAttempts is the total number of times a remote call is attempted.
	maxAttempts = 5
	// backoffBase doubles per attempt: 10s, 20s, 40s, 80s between attempts.
	backoffBase = 5 * time.Second
)

// Retrier wraps remote CRM calls with bounded retry, exponential backoff,
// and a credential refresh before the next attempt whenever the account's
// token has passed its expiry. Sleep and Now are injectable for tests; nil
// means the real clock.
type Retrier struct {
	API   API
	Log   *zap.SugaredLogger
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// Do runs op, retrying up to maxAttempts times in total. Any error counts as
// retryable. Once attempts are exhausted it returns ErrRetriesExhausted;
// callers must treat that as fatal for the current sync phase.
func Do[T any](ctx context.Context, r *Retrier, account *domain.Account, op func(context.Context) (T, error)) (T, error) {
	var zero T

	log := r.Log
	if log == nil {
		log = zap.S()
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		log.Warnw("remote call failed",
			"hub_id", account.HubID,
			"attempt", attempt,
			"error", err,
		)
		if attempt == maxAttempts {
			break
		}
		metrics.RemoteRetriesTotal.Inc()

		if account.TokenExpired(now()) {
			if rerr := RefreshCredentials(ctx, r.API, account, now); rerr != nil {
				log.Errorw("token refresh before retry failed", "hub_id", account.HubID, "error", rerr)
			}
		}

		if serr := sleep(ctx, backoffBase<<attempt); serr != nil {
			return zero, serr
		}
	}
	return zero, ErrRetriesExhausted
}

// RefreshCredentials exchanges the account's refresh token for a new access
// token, updates the account's token and expiry, and points the API session
// at the new token.
func RefreshCredentials(ctx context.Context, api API, account *domain.Account, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	grant, err := api.RefreshToken(ctx, account.RefreshToken)
	if err != nil {
		return fmt.Errorf("refresh access token: %w", err)
	}

	account.AccessToken = grant.AccessToken
	account.TokenExpiresAt = now().Add(time.Duration(grant.ExpiresIn) * time.Second)
	api.SetAccessToken(grant.AccessToken)
	metrics.TokenRefreshesTotal.Inc()
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
