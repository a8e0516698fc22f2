// Package repository handles all interactions with the database.
//
// It contains raw SQL queries and methods to fetch, persist,
// or update data, abstracting SQL logic away from the service layer.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// QueryRower runs a query returning at most one row.
//
// *pgxpool.Pool, *pgx.Conn and database.Handle all satisfy it, so the
// same query runs on the shared pool or on a per-request connection.
type QueryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
