// Package auth issues and verifies the bearer tokens of the kanbu-acl admin
// API.
package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of an API access token.
//
// Group membership is absent: it is resolved from the store on every
// permission check so that expiry and removal take effect immediately.
type Claims struct {
	jwt.RegisteredClaims

	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	// Role is "admin" or "user". Admins bypass resource checks in the API.
	Role string `json:"role"`
}

// IsAdmin reports whether the token was issued to an admin.
func (c *Claims) IsAdmin() bool {
	return c.Role == "admin"
}
