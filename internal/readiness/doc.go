// Package readiness decides whether a media artifact has a byte-stream
// available to preview or download.
package readiness
