// Package poller watches server-side conversion jobs until they reach a
// terminal status. Each watch owns its own loop; loops never overlap their
// fetches and stop deterministically on cancellation.
package poller
