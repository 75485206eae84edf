// Package watermark persists the single timestamp that bounds the next
// incremental extraction.
package watermark

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BartekS5/odoo-etl/pkg/database"
)

const (
	// Layout is the timestamp format Odoo compares write_date against.
	Layout = "2006-01-02 15:04:05"
	// Epoch is returned when nothing has been stored yet.
	Epoch = "1970-01-01 00:00:00"
)

// Store reads and writes the watermark. Write must be durable before it
// returns.
type Store interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, ts string) error
	Close() error
}

// Format renders t in UTC with second precision.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Validate checks that ts is in Layout.
func Validate(ts string) error {
	if _, err := time.Parse(Layout, ts); err != nil {
		return fmt.Errorf("invalid watermark %q: expected layout %q", ts, Layout)
	}
	return nil
}

// Options selects and configures a backend.
type Options struct {
	Backend       string // file, redis, mongo or memory
	File          string
	Key           string
	RedisAddr     string
	RedisDB       int
	MongoURI      string
	MongoDatabase string
}

// Open connects the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Backend) {
	case "", "file":
		return NewFileStore(opts.File), nil
	case "memory":
		return NewMemoryStore(""), nil
	case "redis":
		client, err := database.ConnectRedis(ctx, opts.RedisAddr, opts.RedisDB)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, opts.Key), nil
	case "mongo":
		client, err := database.ConnectMongo(ctx, opts.MongoURI)
		if err != nil {
			return nil, err
		}
		return NewMongoStore(client, opts.MongoDatabase, opts.Key), nil
	default:
		return nil, fmt.Errorf("unknown watermark backend %q", opts.Backend)
	}
}
