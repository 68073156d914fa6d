package domain

import "time"

// Object represents a fetched CRM record (company, contact, or meeting):
// an id, created/updated timestamps, and a flat property bag. Properties
// absent from the record are simply missing from the map.
type Object struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	Archived   bool              `json:"archived"`
}

// Property returns the named property value, or nil when the record does not
// carry it. The pointer form feeds directly into optional action payload
// fields, so absent values stay absent after serialization.
func (o *Object) Property(name string) *string {
	v, ok := o.Properties[name]
	if !ok {
		return nil
	}
	return &v
}
