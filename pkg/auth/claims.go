package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// CallerClaims represents the typed JWT presented by dashboard callers.
// Tokens are minted by the external auth service; this process only
// verifies them.
type CallerClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// CallerID returns the stable identifier of the authenticated caller.
func (c *CallerClaims) CallerID() string {
	return c.Subject
}
