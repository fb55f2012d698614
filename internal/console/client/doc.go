// Package client talks to the remote auth gateway over HTTP/JSON.
//
// # Overview
//
// Client is the transport-agnostic contract used by the session manager and
// the credential flow. HTTPClient implements it: it joins endpoint paths to a
// base URL, sends JSON bodies, injects the bearer token from an
// oauth2.TokenSource and tags every request with an X-Request-ID.
//
// # Error Handling
//
// Every failure is reported as *APIError carrying a user-facing Message.
// Callers match categories with errors.Is against ErrUnauthorized,
// ErrTimeout and ErrNetwork.
package client
