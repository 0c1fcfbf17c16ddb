// Package journal persists a local SQLite record of uploads and conversion
// submissions so past activity can be listed without the server.
package journal
