// Package pipeline implements the telemetry processing pass:
// normalize → filter → resample → summarize. A run is a single
// forward transformation over immutable record sets; failures are
// terminal for the run, and the next run starts over independently.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ratthapon/suntrack/internal/metrics"
	"github.com/ratthapon/suntrack/internal/models"
	"github.com/ratthapon/suntrack/internal/source"
)

// Config is the immutable per-run configuration. There is no ambient
// state: everything a run needs is passed in here.
type Config struct {
	Source         string
	SiteID         string
	Start          time.Time // date; zero means unbounded
	End            time.Time // date; zero means unbounded
	CadenceMinutes int
	Reference      ReferenceParams
}

// Validate rejects configurations before any I/O happens.
func (c Config) Validate() error {
	if c.Source == "" {
		return errors.New("source descriptor required")
	}
	if !ValidCadence(c.CadenceMinutes) {
		return fmt.Errorf("cadence %d not in recognized set %v", c.CadenceMinutes, Cadences)
	}
	if c.Reference.PanelAreaM2 <= 0 {
		return errors.New("panel area must be positive")
	}
	if c.Reference.ModuleEff <= 0 || c.Reference.ModuleEff > 1 {
		return errors.New("module efficiency must be in (0, 1]")
	}
	if c.Reference.FixedPRBaseline < 0 || c.Reference.FixedPRBaseline > 1 {
		return errors.New("fixed-tilt PR baseline must be in [0, 1]")
	}
	if !c.Start.IsZero() && !c.End.IsZero() && c.End.Before(c.Start) {
		return errors.New("end date before start date")
	}
	return nil
}

// Result is the complete output of one run.
type Result struct {
	Config  Config
	Stats   NormalizeStats
	Buckets []models.ResampledBucket
	Summary models.SummaryMetrics
	RanAt   time.Time
}

type Pipeline struct {
	reader *source.Reader
}

func New(reader *source.Reader) *Pipeline {
	return &Pipeline{reader: reader}
}

// Run executes one pass. Error taxonomy: config validation errors,
// source.ErrSourceUnavailable, ErrSchemaMissing and ErrEmptyResult,
// all checked with errors.Is by callers. Row-level timestamp failures
// are recovered by dropping the row and never abort the run.
func (p *Pipeline) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()

	q := source.Query{SiteID: cfg.SiteID}
	if !cfg.Start.IsZero() {
		q.Start = startOfDayUTC(cfg.Start)
	}
	if !cfg.End.IsZero() {
		q.End = startOfDayUTC(cfg.End).Add(24 * time.Hour)
	}

	rows, err := p.reader.Load(ctx, cfg.Source, q)
	if err != nil {
		metrics.PipelineRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	samples, stats, err := Normalize(rows, cfg.Source)
	if err != nil {
		metrics.PipelineRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.RowsDropped.Add(float64(stats.DroppedRows))

	siteFilter := cfg.SiteID
	if !stats.SiteColumn {
		// No site column in the source: the site filter cannot apply.
		siteFilter = ""
	}
	filtered := Filter(samples, siteFilter, cfg.Start, cfg.End)
	if len(filtered) == 0 {
		metrics.PipelineRuns.WithLabelValues("empty").Inc()
		return nil, fmt.Errorf("%w (source %s, site %q)", ErrEmptyResult, cfg.Source, cfg.SiteID)
	}

	buckets := Resample(filtered, cfg.CadenceMinutes)
	summary := Summarize(buckets, cfg.CadenceMinutes, cfg.Reference)

	metrics.PipelineRuns.WithLabelValues("ok").Inc()
	metrics.PipelineDuration.Observe(time.Since(started).Seconds())

	return &Result{
		Config:  cfg,
		Stats:   stats,
		Buckets: buckets,
		Summary: summary,
		RanAt:   started,
	}, nil
}
