package sync

import (
	"context"
	"fmt"

	"github.com/johnwards/hubsync/internal/domain"
)

// resolveCompanyIDs batch-reads contact→company associations and maps each
// contact id to its first associated company. Contacts with no association
// are absent from the result.
func (s *accountSync) resolveCompanyIDs(ctx context.Context, contactIDs []string) (map[string]string, error) {
	if len(contactIDs) == 0 {
		return map[string]string{}, nil
	}

	pairs, err := Do(ctx, s.retrier, s.account, func(ctx context.Context) ([]domain.AssociationPair, error) {
		return s.api.BatchReadAssociations(ctx, objectTypeContacts, objectTypeCompanies, contactIDs)
	})
	if err != nil {
		return nil, fmt.Errorf("resolve company associations: %w", err)
	}
	return firstAssociations(pairs), nil
}

// firstAssociations keeps to[0] per source; remaining targets are discarded.
func firstAssociations(pairs []domain.AssociationPair) map[string]string {
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		if p.From.ID == "" || len(p.To) == 0 {
			continue
		}
		if _, ok := m[p.From.ID]; ok {
			continue
		}
		m[p.From.ID] = p.To[0].ID
	}
	return m
}

// meetingContactEmails resolves the emails of every contact associated with
// one meeting: first the association list for the meeting, then a batch read
// of the contact records for their email property. Contacts without an
// email are dropped.
func (s *accountSync) meetingContactEmails(ctx context.Context, meetingID string) ([]string, error) {
	refs, err := Do(ctx, s.retrier, s.account, func(ctx context.Context) ([]domain.ObjectRef, error) {
		return s.api.ListAssociations(ctx, objectTypeMeetings, meetingID, objectTypeContacts)
	})
	if err != nil {
		return nil, fmt.Errorf("list meeting %s contacts: %w", meetingID, err)
	}
	if len(refs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(refs))
	for i, ref := range refs {
		ids[i] = ref.ID
	}

	contacts, err := Do(ctx, s.retrier, s.account, func(ctx context.Context) ([]*domain.Object, error) {
		return s.api.BatchReadObjects(ctx, objectTypeContacts, ids, []string{"email"})
	})
	if err != nil {
		return nil, fmt.Errorf("read meeting %s contacts: %w", meetingID, err)
	}

	var emails []string
	for _, contact := range contacts {
		if email := contact.Properties["email"]; email != "" {
			emails = append(emails, email)
		}
	}
	return emails, nil
}
