// Package etl turns Odoo records into staged rows and drives the
// incremental extraction run.
package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BartekS5/odoo-etl/internal/odoo"
	"github.com/BartekS5/odoo-etl/internal/watermark"
	"github.com/BartekS5/odoo-etl/pkg/logger"
	"github.com/BartekS5/odoo-etl/pkg/models"
)

// Extractor runs one incremental extraction over Entities.
type Extractor struct {
	Source     RecordSource
	Watermarks watermark.Store
	Stager     Stager
	Entities   []models.Entity
	PageSize   int
	// DryRun fetches and transforms but writes neither staging files nor
	// the watermark.
	DryRun bool
	// Full ignores the stored watermark and extracts from Epoch.
	Full bool
	Now  func() time.Time
}

// EntityReport is the outcome of one entity in a run.
type EntityReport struct {
	Entity  models.Kind `json:"entity" yaml:"entity"`
	Fetched int         `json:"fetched" yaml:"fetched"`
	Staged  int         `json:"staged" yaml:"staged"`
	Skipped bool        `json:"skipped" yaml:"skipped"`
	Path    string      `json:"path,omitempty" yaml:"path,omitempty"`
}

// RunReport summarizes a completed run.
type RunReport struct {
	RunID         string         `json:"run_id" yaml:"run_id"`
	Watermark     string         `json:"watermark" yaml:"watermark"`
	NextWatermark string         `json:"next_watermark" yaml:"next_watermark"`
	Entities      []EntityReport `json:"entities" yaml:"entities"`
	Duration      time.Duration  `json:"duration" yaml:"duration"`
	DryRun        bool           `json:"dry_run" yaml:"dry_run"`
}

func NewExtractor(src RecordSource, store watermark.Store, stager Stager, pageSize int) *Extractor {
	return &Extractor{
		Source:     src,
		Watermarks: store,
		Stager:     stager,
		Entities:   models.Catalog(),
		PageSize:   pageSize,
		Now:        time.Now,
	}
}

// Run reads the watermark once, extracts every entity changed since then,
// and advances the watermark only after all entities were staged or
// skipped. Any error aborts the run with the watermark untouched.
func (e *Extractor) Run(ctx context.Context) (*RunReport, error) {
	now := e.Now
	if now == nil {
		now = time.Now
	}
	start := now()
	report := &RunReport{RunID: uuid.NewString(), DryRun: e.DryRun}
	log := logger.With("run_id", report.RunID)

	wm, err := e.Watermarks.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read watermark: %w", err)
	}
	if e.Full {
		log.Infof("Full extract requested, ignoring stored watermark %s", wm)
		wm = watermark.Epoch
	}
	report.Watermark = wm
	log.Infof("Starting extraction. Watermark: %s, Page Size: %d, DryRun: %v", wm, e.PageSize, e.DryRun)

	for _, entity := range e.Entities {
		er, err := e.extractEntity(ctx, entity, wm)
		if err != nil {
			log.Errorf("Extraction of %s failed, watermark stays at %s: %v", entity.Kind, wm, err)
			return nil, fmt.Errorf("extract %s: %w", entity.Kind, err)
		}
		report.Entities = append(report.Entities, er)
	}

	report.NextWatermark = watermark.Format(now())
	if e.DryRun {
		log.Infof("[DRY RUN] Would advance watermark to %s", report.NextWatermark)
	} else {
		if err := e.Watermarks.Write(ctx, report.NextWatermark); err != nil {
			return nil, fmt.Errorf("write watermark: %w", err)
		}
		log.Infof("Watermark advanced to %s", report.NextWatermark)
	}

	report.Duration = now().Sub(start)
	log.Infof("Extraction finished in %s", report.Duration)
	return report, nil
}

func (e *Extractor) extractEntity(ctx context.Context, entity models.Entity, wm string) (EntityReport, error) {
	er := EntityReport{Entity: entity.Kind}

	t, err := TransformationFor(entity.Kind)
	if err != nil {
		return er, err
	}

	records, err := e.Source.FetchAll(ctx, odoo.FetchRequest{
		Model:       entity.Model,
		Fields:      entity.Fields,
		Base:        odoo.Domain(entity.BaseDomain),
		Incremental: odoo.Since(wm),
		PageSize:    e.PageSize,
	})
	if err != nil {
		return er, err
	}
	er.Fetched = len(records)

	if len(records) == 0 {
		logger.Infof("No new or updated %s since %s, keeping previous staging file", entity.Kind, wm)
		er.Skipped = true
		return er, nil
	}

	rows := t.Transform(records)
	er.Staged = len(rows)

	if e.DryRun {
		logger.Infof("[DRY RUN] Would stage %d %s rows to %s", len(rows), entity.Kind, entity.StagingFile)
		return er, nil
	}

	path, err := e.Stager.Write(entity.StagingFile, t.Columns, rows)
	if err != nil {
		return er, fmt.Errorf("stage %s: %w", entity.Kind, err)
	}
	er.Path = path
	logger.Infof("Staged %d %s rows to %s", len(rows), entity.Kind, path)
	return er, nil
}
