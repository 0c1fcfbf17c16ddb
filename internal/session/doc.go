// Package session persists the authenticated token pair between CLI
// invocations and validates it with a single trust-probe at startup.
package session
