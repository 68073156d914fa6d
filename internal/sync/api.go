// Package sync implements the incremental pull of CRM records into the
// analytics action queue: the retrying remote caller, the cursor-driven
// paginator, association resolution, per-entity translation, and the
// per-account orchestration.
package sync

import (
	"context"
	"errors"

	"github.com/johnwards/hubsync/internal/domain"
)

// API is the remote CRM surface the sync depends on. *hubspot.Client
// implements it; tests substitute fakes.
type API interface {
	Search(ctx context.Context, objectType string, req *domain.SearchRequest) (*domain.SearchResult, error)
	BatchReadAssociations(ctx context.Context, fromType, toType string, ids []string) ([]domain.AssociationPair, error)
	ListAssociations(ctx context.Context, fromType, fromID, toType string) ([]domain.ObjectRef, error)
	BatchReadObjects(ctx context.Context, objectType string, ids, properties []string) ([]*domain.Object, error)
	RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenGrant, error)
	SetAccessToken(token string)
}

// ErrRetriesExhausted is returned once a remote call has failed on every
// allowed attempt. It is fatal to the current sync phase only.
var ErrRetriesExhausted = errors.New("retries exhausted")

// ErrPagingStalled is returned when the remote keeps handing back a next
// cursor without any records, which would otherwise loop forever.
var ErrPagingStalled = errors.New("pagination stalled")

const (
	objectTypeCompanies = "companies"
	objectTypeContacts  = "contacts"
	objectTypeMeetings  = "meetings"

	// Modification-date property per entity kind. Contacts use the legacy
	// name without the hs_ prefix.
	propCompanyModified = "hs_lastmodifieddate"
	propContactModified = "lastmodifieddate"
	propMeetingModified = "hs_lastmodifieddate"
)

var companyProperties = []string{
	"name", "domain", "country", "industry", "description",
	"annualrevenue", "numberofemployees", "hs_lead_status",
}

var contactProperties = []string{
	"firstname", "lastname", "jobtitle", "email",
	"hubspotscore", "hs_lead_status", "hs_analytics_source", "hs_latest_source",
}

var meetingProperties = []string{
	"hs_meeting_title", "hs_meeting_body", "hs_meeting_start_time",
	"hs_meeting_end_time", "hs_meeting_outcome",
}
