package domain

import "time"

// Action is one canonical analytics event produced from a translated CRM
// record. Exactly one of the Company, User, or Meeting payloads is set,
// matching the record kind the action was derived from. Actions are never
// mutated after creation.
type Action struct {
	Name               string             `json:"actionName"`
	Date               time.Time          `json:"actionDate"`
	IncludeInAnalytics bool               `json:"includeInAnalytics"`
	Identity           string             `json:"identity,omitempty"`
	Company            *CompanyProperties `json:"companyProperties,omitempty"`
	User               *UserProperties    `json:"userProperties,omitempty"`
	Meeting            *MeetingProperties `json:"meetingProperties,omitempty"`
}

// CompanyProperties is the payload for company actions. Optional fields are
// pointers so that properties missing from the source record are dropped
// from the serialized payload rather than emitted as empty values.
type CompanyProperties struct {
	CompanyID string  `json:"company_id"`
	Domain    *string `json:"company_domain,omitempty"`
	Industry  *string `json:"company_industry,omitempty"`
}

// UserProperties is the payload for contact actions. Identity (the contact's
// email) lives on the enclosing Action.
type UserProperties struct {
	CompanyID *string `json:"company_id,omitempty"`
	Name      string  `json:"contact_name"`
	Title     *string `json:"contact_title,omitempty"`
	Source    *string `json:"contact_source,omitempty"`
	Status    *string `json:"contact_status,omitempty"`
	Score     int     `json:"contact_score"`
}

// MeetingProperties is the payload for meeting actions, one per associated
// contact with a resolvable email.
type MeetingProperties struct {
	MeetingID string  `json:"meeting_id"`
	Title     *string `json:"meeting_title,omitempty"`
	StartTime *string `json:"meeting_start_time,omitempty"`
	EndTime   *string `json:"meeting_end_time,omitempty"`
	Outcome   *string `json:"meeting_outcome,omitempty"`
}
