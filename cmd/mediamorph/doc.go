// Command mediamorph is the command-line client for the media conversion
// service: account management, uploads, conversion submission, job watching,
// readiness checks, and downloads.
package main
