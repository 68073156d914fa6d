package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/johnwards/hubsync/internal/domain"
	"github.com/johnwards/hubsync/internal/metrics"
	"github.com/johnwards/hubsync/internal/queue"
	"github.com/johnwards/hubsync/internal/sink"
	"github.com/johnwards/hubsync/internal/store"
)

// Orchestrator runs one full sync pass: load the domain, process each
// account in sequence, and persist watermarks. Every phase failure is
// isolated — it is logged with account and phase context and never prevents
// subsequent phases or accounts from running.
type Orchestrator struct {
	Store          store.DomainStore
	NewAPI         func(accessToken string) API
	NewSink        func(apiKey string) sink.Sink
	Log            *zap.SugaredLogger
	PageSize       int
	FlushThreshold int

	// Sleep and Now are injectable for tests; nil means the real clock.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// accountSync carries the per-account collaborators through one account's
// entity syncs.
type accountSync struct {
	api      API
	retrier  *Retrier
	account  *domain.Account
	queue    *queue.Queue
	log      *zap.SugaredLogger
	pageSize int
	now      func() time.Time
}

// Run executes a single pass over every account of the domain. It returns an
// error only when the domain itself cannot be loaded; per-account and
// per-phase failures are logged and absorbed.
func (o *Orchestrator) Run(ctx context.Context) error {
	log := o.Log
	if log == nil {
		log = zap.S()
	}

	log.Infow("start pulling data from CRM")

	d, err := o.Store.FindOne(ctx)
	if err != nil {
		return fmt.Errorf("load domain: %w", err)
	}

	for _, account := range d.Accounts {
		o.syncAccount(ctx, d, account, log.With("hub_id", account.HubID))
	}

	log.Infow("sync pass complete", "accounts", len(d.Accounts))
	return nil
}

func (o *Orchestrator) syncAccount(ctx context.Context, d *domain.Domain, account *domain.Account, log *zap.SugaredLogger) {
	log.Infow("start processing account")

	now := o.Now
	if now == nil {
		now = time.Now
	}
	pageSize := o.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	threshold := o.FlushThreshold
	if threshold <= 0 {
		threshold = 2000
	}

	api := o.NewAPI(account.AccessToken)

	if err := RefreshCredentials(ctx, api, account, now); err != nil {
		metrics.PhaseErrorsTotal.WithLabelValues("refresh_token").Inc()
		log.Errorw("phase failed", "phase", "refresh_token", "error", err)
	}

	s := &accountSync{
		api:      api,
		retrier:  &Retrier{API: api, Log: log, Sleep: o.Sleep, Now: now},
		account:  account,
		queue:    queue.New(o.NewSink(d.APIKey), threshold, log),
		log:      log,
		pageSize: pageSize,
		now:      now,
	}

	phases := []struct {
		name string
		run  func(context.Context) error
	}{
		{"companies", s.syncCompanies},
		{"contacts", s.syncContacts},
		{"meetings", s.syncMeetings},
	}
	for _, phase := range phases {
		if err := phase.run(ctx); err != nil {
			metrics.PhaseErrorsTotal.WithLabelValues(phase.name).Inc()
			log.Errorw("phase failed", "phase", phase.name, "error", err)
		}
		o.save(ctx, d, log)
	}

	if err := s.queue.Drain(ctx); err != nil {
		metrics.PhaseErrorsTotal.WithLabelValues("drain").Inc()
		log.Errorw("phase failed", "phase", "drain", "error", err)
	}

	o.save(ctx, d, log)
	log.Infow("finish processing account")
}

// save persists watermarks and tokens best-effort: failures are logged, not
// fatal.
func (o *Orchestrator) save(ctx context.Context, d *domain.Domain, log *zap.SugaredLogger) {
	if err := o.Store.Save(ctx, d); err != nil {
		log.Warnw("persist sync state failed", "error", err)
	}
}
