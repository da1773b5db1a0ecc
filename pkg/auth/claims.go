package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   string
	Username string
	JTI      string
}

// AccessTokenClaims is the token the host application issues to its users.
type AccessTokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Actor returns the user id, falling back to the subject claim.
func (c *AccessTokenClaims) Actor() string {
	if c == nil {
		return ""
	}
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}
