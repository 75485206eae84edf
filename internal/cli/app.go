package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/BartekS5/odoo-etl/internal/config"
	"github.com/BartekS5/odoo-etl/internal/etl"
	"github.com/BartekS5/odoo-etl/internal/loader"
	"github.com/BartekS5/odoo-etl/internal/odoo"
	"github.com/BartekS5/odoo-etl/internal/runlock"
	"github.com/BartekS5/odoo-etl/internal/staging"
	"github.com/BartekS5/odoo-etl/internal/watermark"
	"github.com/BartekS5/odoo-etl/pkg/database"
	"github.com/BartekS5/odoo-etl/pkg/logger"
)

func openWatermarks(ctx context.Context, cfg *config.Config) (watermark.Store, error) {
	w := cfg.Watermark
	return watermark.Open(ctx, watermark.Options{
		Backend:       w.Backend,
		File:          w.File,
		Key:           w.Key,
		RedisAddr:     w.RedisAddr,
		RedisDB:       w.RedisDB,
		MongoURI:      w.MongoURI,
		MongoDatabase: w.MongoDatabase,
	})
}

type extractOptions struct {
	DryRun bool
	Full   bool
}

// runExtract performs one extraction while holding the run lock.
func runExtract(ctx context.Context, cfg *config.Config, opts extractOptions) (*etl.RunReport, error) {
	var report *etl.RunReport
	err := runlock.With(cfg.LockFile, cfg.LockStaleAfter, func() error {
		client, err := odoo.NewClient(odoo.Config{
			URL:      cfg.Odoo.URL,
			DB:       cfg.Odoo.DB,
			Username: cfg.Odoo.Username,
			Password: cfg.Odoo.Password,
			Timeout:  cfg.Odoo.Timeout,
		})
		if err != nil {
			return err
		}
		defer client.Close()

		if _, err := client.Authenticate(ctx); err != nil {
			return err
		}

		store, err := openWatermarks(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		extractor := etl.NewExtractor(client, store, staging.NewWriter(cfg.StagingDir), cfg.PageSize)
		extractor.DryRun = opts.DryRun
		extractor.Full = opts.Full

		report, err = extractor.Run(ctx)
		return err
	})
	return report, err
}

// runLoad loads every staged file under dir while holding the run lock.
func runLoad(ctx context.Context, cfg *config.Config, dir string) ([]loader.Result, error) {
	var results []loader.Result
	err := runlock.With(cfg.LockFile, cfg.LockStaleAfter, func() error {
		dialect, err := loader.DialectFor(cfg.Destination.Driver)
		if err != nil {
			return err
		}
		db, err := database.ConnectSQL(ctx, dialect.Driver(), cfg.DestinationDSN())
		if err != nil {
			return err
		}
		defer db.Close()

		l, err := loader.New(ctx, db, dialect, loader.Options{BatchSize: cfg.LoadBatchSize})
		if err != nil {
			return err
		}
		results, err = l.LoadAll(ctx, dir)
		return err
	})
	if err == nil {
		logger.Infof("Load from %s finished: %d entit(ies) processed.", dir, len(results))
	}
	return results, err
}

func printExtractReport(w io.Writer, r *etl.RunReport) {
	prefix := ""
	if r.DryRun {
		prefix = "[DRY RUN] "
	}
	fmt.Fprintf(w, "%sRun %s: watermark %s -> %s in %s\n", prefix, r.RunID, r.Watermark, r.NextWatermark, r.Duration)
	for _, e := range r.Entities {
		if e.Skipped {
			fmt.Fprintf(w, "  %-13s skipped (no changes)\n", e.Entity)
			continue
		}
		fmt.Fprintf(w, "  %-13s fetched %d, staged %d %s\n", e.Entity, e.Fetched, e.Staged, e.Path)
	}
}

func printLoadResults(w io.Writer, results []loader.Result) {
	for _, r := range results {
		if r.Skipped {
			fmt.Fprintf(w, "  %-13s skipped (%s not found)\n", r.Entity, r.Path)
			continue
		}
		fmt.Fprintf(w, "  %-13s attempted %d, inserted %d\n", r.Entity, r.Attempted, r.Inserted)
	}
}

func requireConfig(o *RootOptions) (*config.Config, error) {
	if o.cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return o.cfg, nil
}
