package odoo

import (
	"context"
	"errors"
	"fmt"

	"github.com/BartekS5/odoo-etl/pkg/logger"
)

// Pager serves a single page of a search_read.
type Pager interface {
	SearchRead(ctx context.Context, model string, domain Domain, fields []string, limit, offset int) ([]Record, error)
}

// FetchRequest describes one bulk read.
type FetchRequest struct {
	Model       string
	Fields      []string
	Base        Domain
	Incremental Domain
	PageSize    int
}

// QueryError reports a failed page request. Records gathered before the
// failure are discarded.
type QueryError struct {
	Model  string
	Offset int
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("search_read %s at offset %d: %v", e.Model, e.Offset, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// FetchAll pages through req with offset/limit until a page comes back
// shorter than PageSize. Base and Incremental are AND-ed and sent with every
// page; the offset always starts at 0.
func FetchAll(ctx context.Context, p Pager, req FetchRequest) ([]Record, error) {
	if req.PageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", req.PageSize)
	}
	domain := And(req.Base, req.Incremental)

	var all []Record
	offset := 0
	for {
		page, err := p.SearchRead(ctx, req.Model, domain, req.Fields, req.PageSize, offset)
		if err != nil {
			logger.Errorf("Error fetching batch from model '%s': %v", req.Model, err)
			if errors.Is(err, ErrAuthentication) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, &QueryError{Model: req.Model, Offset: offset, Err: err}
		}

		all = append(all, page...)
		logger.Debugf("Fetched batch of %d from '%s', offset %d", len(page), req.Model, offset)
		if len(page) < req.PageSize {
			break
		}
		offset += req.PageSize
	}

	logger.Infof("Total records fetched from '%s': %d", req.Model, len(all))
	return all, nil
}
