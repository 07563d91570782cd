// Package postgres owns the relational schema. The DDL is idempotent so
// EnsureSchema can run on every start.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"govgate/pkg/platform/sentinel"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema applies the schema to the given database.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Classify maps driver-level failures onto sentinel errors. Errors in the
// connection, insufficient-resources, and operator-intervention classes read
// as sentinel.ErrUnavailable so services can answer with a retryable status
// instead of an internal one.
func Classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53", "57":
			return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
		}
	}
	return err
}
