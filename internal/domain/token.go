package domain

// TokenGrant is the response from an OAuth refresh-token exchange.
type TokenGrant struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
}
