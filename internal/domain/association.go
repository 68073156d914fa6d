package domain

// ObjectRef identifies a CRM object in association requests and responses.
type ObjectRef struct {
	ID string `json:"id"`
}

// AssociationPair is one entry in an association batch-read response: a
// source object and every target it is associated with.
type AssociationPair struct {
	From ObjectRef   `json:"from"`
	To   []ObjectRef `json:"to"`
}
