// Package common contains shared constants, sentinel errors and small helpers
// used across the console and the gateway stub.
package common

// RequestIDHeaderName is the HTTP header used to correlate a console request
// with gateway logs.
const RequestIDHeaderName = "X-Request-ID"

// AuthorizationHeaderName carries the bearer token on outbound requests.
const AuthorizationHeaderName = "Authorization"

// Keys of the persisted credential pair.
const (
	TokenKey = "token"
	RoleKey  = "role"
	SaltKey  = "salt"
)
