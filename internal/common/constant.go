// Package common contains shared constants and sentinel errors used across
// alumnikeeper components.
package common

const (
	// SessionCookieName is the cookie that carries the session token.
	SessionCookieName = "jwt"

	// AuthorizationScheme prefixes a session token passed in the
	// Authorization header instead of the cookie.
	AuthorizationScheme = "Bearer"
)
