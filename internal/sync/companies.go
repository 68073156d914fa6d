package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/johnwards/hubsync/internal/domain"
	"github.com/johnwards/hubsync/internal/metrics"
)

// companyDateSkew backdates company action dates so they sort ahead of the
// near-simultaneous user events derived from the same change.
const companyDateSkew = 2 * time.Second

// syncCompanies pulls companies modified since the account's watermark and
// queues one action per record. The watermark advances to the window's upper
// bound only after every page succeeded.
func (s *accountSync) syncCompanies(ctx context.Context) error {
	lastPulled := s.account.LastPulled.Companies
	now := s.now()
	s.log.Infow("company sync window", "from", lastPulled, "to", now)

	err := paginate(ctx, lastPulled, func(ctx context.Context, since time.Time, after int) (*domain.SearchResult, error) {
		req := searchRequest(propCompanyModified, companyProperties, since, now, s.pageSize, after)

		result, err := Do(ctx, s.retrier, s.account, func(ctx context.Context) (*domain.SearchResult, error) {
			return s.api.Search(ctx, objectTypeCompanies, req)
		})
		if err != nil {
			return nil, fmt.Errorf("fetch companies: %w", err)
		}
		metrics.PagesFetchedTotal.WithLabelValues(objectTypeCompanies).Inc()

		for _, company := range result.Results {
			if company.Properties == nil {
				continue
			}
			s.queue.Push(ctx, companyAction(company, lastPulled))
			metrics.ActionsEmittedTotal.WithLabelValues("company").Inc()
		}
		return result, nil
	})
	if err != nil {
		return err
	}

	s.account.LastPulled.Companies = now
	return nil
}

// companyAction translates one company record. Created vs Updated is decided
// by whether the record was created strictly after the watermark.
func companyAction(company *domain.Object, lastPulled time.Time) *domain.Action {
	created := lastPulled.IsZero() || company.CreatedAt.After(lastPulled)

	name, date := "Company Created", company.CreatedAt
	if !created {
		name, date = "Company Updated", company.UpdatedAt
	}

	return &domain.Action{
		Name: name,
		Date: date.Add(-companyDateSkew),
		Company: &domain.CompanyProperties{
			CompanyID: company.ID,
			Domain:    company.Property("domain"),
			Industry:  company.Property("industry"),
		},
	}
}
