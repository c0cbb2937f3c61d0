// Package remote provides clients for the hosted CadSocial data store.
//
// # Overview
//
// Two implementations share the Store interface:
//
//   - Client: HTTP client for the PostgREST-compatible API exposed by the
//     hosted backend (rows under /rest/v1/{table}).
//   - Postgres: direct pgx pool for deployments that reach the database
//     without going through the API.
//
// Intake code only needs Inserter; the review commands use Reviewer; the
// webhook server uses ProfileEmail.
//
// # Request Handling
//
// Every HTTP request:
//   - Uses context for cancellation and timeout control
//   - Sends the project API key in the apikey header
//   - Sends the signed-in operator's access token as the bearer token, or the
//     API key when no TokenSource is configured
//   - Asks for Prefer: return=minimal on writes
//   - Has a 10-second timeout
//
// Filters use the PostgREST operator syntax, e.g. id=eq.{id}.
//
// # Error Handling
//
// Non-2xx responses become *APIError carrying the HTTP status and the
// PostgREST code and message, so callers can surface the server's text to
// the operator. Lookups that match no row return ErrNotFound.
//
// Ping treats transport failures and 5xx responses as unreachable; any other
// answer, including 401, proves the server is up. Client and Postgres both
// implement connectivity.Probe through Check.
package remote
