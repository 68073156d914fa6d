package sync

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/johnwards/hubsync/internal/domain"
	"github.com/johnwards/hubsync/internal/metrics"
)

// syncContacts pulls contacts modified since the account's watermark,
// resolves their company associations per page, and queues one action per
// contact that carries an email.
func (s *accountSync) syncContacts(ctx context.Context) error {
	lastPulled := s.account.LastPulled.Contacts
	now := s.now()
	s.log.Infow("contact sync window", "from", lastPulled, "to", now)

	err := paginate(ctx, lastPulled, func(ctx context.Context, since time.Time, after int) (*domain.SearchResult, error) {
		req := searchRequest(propContactModified, contactProperties, since, now, s.pageSize, after)

		result, err := Do(ctx, s.retrier, s.account, func(ctx context.Context) (*domain.SearchResult, error) {
			return s.api.Search(ctx, objectTypeContacts, req)
		})
		if err != nil {
			return nil, fmt.Errorf("fetch contacts: %w", err)
		}
		metrics.PagesFetchedTotal.WithLabelValues(objectTypeContacts).Inc()

		ids := make([]string, len(result.Results))
		for i, contact := range result.Results {
			ids[i] = contact.ID
		}
		companyIDs, err := s.resolveCompanyIDs(ctx, ids)
		if err != nil {
			return nil, err
		}

		for _, contact := range result.Results {
			if contact.Properties["email"] == "" {
				continue
			}
			s.queue.Push(ctx, contactAction(contact, companyIDs[contact.ID], lastPulled))
			metrics.ActionsEmittedTotal.WithLabelValues("contact").Inc()
		}
		return result, nil
	})
	if err != nil {
		return err
	}

	s.account.LastPulled.Contacts = now
	return nil
}

// contactAction translates one contact record. companyID is the resolved
// association ("" when the contact has none).
func contactAction(contact *domain.Object, companyID string, lastPulled time.Time) *domain.Action {
	created := contact.CreatedAt.After(lastPulled)

	name, date := "Contact Created", contact.CreatedAt
	if !created {
		name, date = "Contact Updated", contact.UpdatedAt
	}

	props := contact.Properties
	user := &domain.UserProperties{
		Name:   strings.TrimSpace(props["firstname"] + " " + props["lastname"]),
		Title:  contact.Property("jobtitle"),
		Source: contact.Property("hs_analytics_source"),
		Status: contact.Property("hs_lead_status"),
		Score:  parseScore(props["hubspotscore"]),
	}
	if companyID != "" {
		user.CompanyID = &companyID
	}

	return &domain.Action{
		Name:     name,
		Date:     date,
		Identity: props["email"],
		User:     user,
	}
}

// parseScore parses the numeric score property, defaulting to 0 when the
// property is absent or malformed.
func parseScore(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
