package auth

import "time"

// Config drives token issuance and validation.
type Config struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

// Claims are extracted from a validated bearer token.
type Claims struct {
	Subject   string    `json:"subject"`
	TokenID   string    `json:"tokenId"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IssuedToken is a freshly signed bearer token.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
