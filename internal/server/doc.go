// Package server implements the HTTP server and HTTP handlers for the
// Crew Panel backend. It wires together the routes, dependencies
// (database, MinIO client, token manager) and provides lifecycle helpers
// used by tests and the production binary.
package server
