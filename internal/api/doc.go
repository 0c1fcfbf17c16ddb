// Package api is the typed gateway client for the media conversion service.
//
// It is the single point of outbound HTTP communication: every URL is built
// here and every request picks up its bearer token from the client's
// TokenSource. Operations cover the full surface the CLI consumes — auth,
// uploads (plain and chunked), listings, history, conversion submission, job
// status polling, and byte-stream downloads.
//
// Failures split into three shapes: *Error for structured service responses,
// *ValidationError for input rejected before any network call, and wrapped
// transport errors for everything that never reached the server. Message
// collapses any of them into one user-facing string.
package api
