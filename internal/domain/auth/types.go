package auth

import "time"

// Config drives API token verification.
type Config struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

// Claims are extracted from a verified API token.
type Claims struct {
	Client    string
	Issuer    string
	ExpiresAt time.Time
}
