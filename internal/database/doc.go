// Package database provides PostgreSQL connection pooling for the
// optional snapshot store backend.
package database
