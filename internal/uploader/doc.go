// Package uploader drives single and bulk file uploads, aggregating
// per-file transport progress into one batch percentage. Files are sent
// strictly in order with at most one request in flight.
package uploader
