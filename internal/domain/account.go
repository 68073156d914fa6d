package domain

import "time"

// Domain is the tenant record. It owns the HubSpot accounts to sync and the
// API key used to attribute analytics actions downstream.
type Domain struct {
	ID       int64
	APIKey   string
	Accounts []*Account
}

// Account holds the OAuth credentials and per-entity watermarks for one
// connected HubSpot portal. Token expiry is scoped to the account so that
// refreshing one portal's token never affects another.
type Account struct {
	HubID          string
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt time.Time
	LastPulled     Watermarks
}

// Watermarks records, per entity kind, the end of the previously synced time
// range. A zero time means the entity has never been pulled for this account.
type Watermarks struct {
	Companies time.Time
	Contacts  time.Time
	Meetings  time.Time
}

// TokenExpired reports whether the account's access token has passed its
// known expiry instant.
func (a *Account) TokenExpired(now time.Time) bool {
	return !a.TokenExpiresAt.IsZero() && now.After(a.TokenExpiresAt)
}
