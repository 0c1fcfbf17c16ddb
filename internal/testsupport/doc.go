// Package testsupport provides shared helpers for tests: temp-dir configs,
// fixture files, and an in-memory fake of the conversion service.
package testsupport
