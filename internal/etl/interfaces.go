package etl

import (
	"context"

	"github.com/BartekS5/odoo-etl/internal/odoo"
	"github.com/BartekS5/odoo-etl/internal/staging"
)

// RecordSource reads every record matching a request.
type RecordSource interface {
	FetchAll(ctx context.Context, req odoo.FetchRequest) ([]odoo.Record, error)
}

// Stager persists the transformed rows of one entity and returns where.
type Stager interface {
	Write(file string, header []string, rows []staging.Row) (string, error)
}
