package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/robfig/cron/v3"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/ratthapon/suntrack/internal/api"
	"github.com/ratthapon/suntrack/internal/config"
	"github.com/ratthapon/suntrack/internal/export"
	"github.com/ratthapon/suntrack/internal/pipeline"
	"github.com/ratthapon/suntrack/internal/source"
	"github.com/ratthapon/suntrack/internal/store"
)

const dateLayout = "2006-01-02"

// pipelineFlags are shared by the serve and run commands. Zero values
// for area/eff/baseline mean "take it from the site profile, else the
// built-in default".
type pipelineFlags struct {
	Source   string        `help:"Source descriptor: CSV path, http(s):// or ftp:// URL, or SQLite file (the telemetry table)." env:"SUNTRACK_SOURCE" default:"sample_data.csv"`
	Site     string        `help:"Site identifier to filter on (empty accepts all)." env:"SUNTRACK_SITE"`
	Start    string        `help:"Start date, YYYY-MM-DD UTC (empty = unbounded)."`
	End      string        `help:"End date, YYYY-MM-DD UTC; the window is half-open at end+1day."`
	Cadence  int           `help:"Resample cadence in minutes (1, 5, 10, 15, 30, 60)." default:"5"`
	Area     float64       `help:"Panel area in m² for the PR reference."`
	Eff      float64       `help:"Module efficiency (0–1] for the PR reference."`
	Baseline float64       `help:"Fixed-tilt PR baseline (0–1] for tracker gain."`
	Sites    string        `help:"Path to sites.yaml site-profile registry." env:"SUNTRACK_SITES" default:"sites.yaml"`
	CacheTTL time.Duration `help:"Source read-through cache TTL (0 disables)." default:"30s"`
}

func (f pipelineFlags) buildConfig() (pipeline.Config, error) {
	cfg := pipeline.Config{
		Source:         f.Source,
		SiteID:         f.Site,
		CadenceMinutes: f.Cadence,
	}
	if f.Start != "" {
		t, err := time.ParseInLocation(dateLayout, f.Start, time.UTC)
		if err != nil {
			return cfg, fmt.Errorf("parse --start: %w", err)
		}
		cfg.Start = t
	}
	if f.End != "" {
		t, err := time.ParseInLocation(dateLayout, f.End, time.UTC)
		if err != nil {
			return cfg, fmt.Errorf("parse --end: %w", err)
		}
		cfg.End = t
	}

	profiles, err := config.LoadSiteProfiles(f.Sites, true)
	if err != nil {
		return cfg, err
	}
	area, eff, baseline := config.Resolve(profiles, f.Site, f.Area, f.Eff, f.Baseline)
	cfg.Reference = pipeline.ReferenceParams{PanelAreaM2: area, ModuleEff: eff, FixedPRBaseline: baseline}
	return cfg, nil
}

type ServeCmd struct {
	pipelineFlags
	Port        string `help:"HTTP server port." env:"PORT" default:"8080"`
	RefreshCron string `help:"Optional cron spec for a warm pipeline run (e.g. '@every 5m')." env:"SUNTRACK_REFRESH_CRON"`
}

func (c *ServeCmd) Run() error {
	cfg, err := c.buildConfig()
	if err != nil {
		return err
	}

	profiles, err := config.LoadSiteProfiles(c.Sites, true)
	if err != nil {
		return err
	}

	reader := source.NewReader(c.CacheTTL)
	pipe := pipeline.New(reader)
	server := api.NewServer(pipe, c.Port, api.Defaults{
		Source:         c.Source,
		SiteID:         c.Site,
		CadenceMinutes: c.Cadence,
		PanelAreaM2:    c.Area,
		ModuleEff:      c.Eff,
		Baseline:       c.Baseline,
		Profiles:       profiles,
		Sites:          knownSites(c.Source),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if c.RefreshCron != "" {
		cr := cron.New()
		_, err := cr.AddFunc(c.RefreshCron, func() {
			// Each warm run is a complete independent pass; its only
			// lasting effect is a fresh entry in the source cache.
			if _, err := pipe.Run(context.Background(), cfg); err != nil && !errors.Is(err, pipeline.ErrEmptyResult) {
				log.Printf("warm run: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("refresh cron %q: %w", c.RefreshCron, err)
		}
		cr.Start()
		defer cr.Stop()
		log.Printf("cache warm job scheduled: %s", c.RefreshCron)
	}

	log.Printf("starting server on :%s (source %s)", c.Port, c.Source)
	return server.Run(ctx)
}

// knownSites lists the site identifiers in a telemetry database, for
// the dashboard's site suggestion list. Non-database sources and read
// failures yield nil; the control is a free-text input either way.
func knownSites(descriptor string) []string {
	if source.Scheme(descriptor) != "sqlite" {
		return nil
	}
	db, err := sql.Open("sqlite", strings.TrimPrefix(descriptor, "sqlite:"))
	if err != nil {
		return nil
	}
	defer db.Close()
	sites, err := store.New(db).Sites()
	if err != nil {
		return nil
	}
	return sites
}

type RunCmd struct {
	pipelineFlags
	Out string `help:"Write the resampled bucket table to this CSV path."`
}

func (c *RunCmd) Run() error {
	cfg, err := c.buildConfig()
	if err != nil {
		return err
	}

	pipe := pipeline.New(source.NewReader(0))
	res, err := pipe.Run(context.Background(), cfg)
	if errors.Is(err, pipeline.ErrEmptyResult) {
		fmt.Println("no data for this selection")
		return nil
	}
	if err != nil {
		return err
	}

	m := res.Summary
	fmt.Printf("buckets:            %d (from %d rows, %d dropped)\n", m.BucketCount, res.Stats.InputRows, res.Stats.DroppedRows)
	fmt.Printf("energy:             %.1f Wh\n", m.EnergyWh)
	fmt.Printf("peak power:         %s W\n", fmtNull(m.PeakPowerW, 1))
	fmt.Printf("avg panel temp:     %s °C\n", fmtNull(m.AvgPanelTempC, 1))
	fmt.Printf("performance ratio:  %s\n", fmtNull(m.PerformanceRatio, 3))
	fmt.Printf("tracker gain:       %s %%\n", fmtNull(m.TrackerGainPct, 1))
	fmt.Printf("avg tracking error: %s °\n", fmtNull(m.AvgTrackingErrDeg, 1))

	if c.Out != "" {
		f, err := os.Create(c.Out)
		if err != nil {
			return fmt.Errorf("create %s: %w", c.Out, err)
		}
		defer f.Close()
		if err := export.WriteCSV(f, res.Buckets, cfg.CadenceMinutes); err != nil {
			return fmt.Errorf("write %s: %w", c.Out, err)
		}
		log.Printf("wrote %d buckets to %s", len(res.Buckets), c.Out)
	}
	return nil
}

func fmtNull(v sql.NullFloat64, prec int) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", prec, v.Float64)
}

type LoadCmd struct {
	DB   string `help:"SQLite database to create or append to." default:"telemetry.db"`
	From string `arg:"" help:"Source to load: CSV path, URL or ftp:// location."`
}

func (c *LoadCmd) Run() error {
	reader := source.NewReader(0)
	rows, err := reader.Load(context.Background(), c.From, source.Query{})
	if err != nil {
		return err
	}
	samples, stats, err := pipeline.Normalize(rows, c.From)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("%s contains no loadable rows", c.From)
	}

	db, err := sql.Open("sqlite", c.DB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	n, err := st.InsertSamples(samples)
	if err != nil {
		return err
	}
	log.Printf("loaded %d rows into %s (%d dropped for bad timestamps)", n, c.DB, stats.DroppedRows)

	total, err := st.SampleCount()
	if err != nil {
		return err
	}
	sites, err := st.Sites()
	if err != nil {
		return err
	}
	log.Printf("%s now holds %d rows across %d sites", c.DB, total, len(sites))
	return nil
}

var cli struct {
	Serve ServeCmd `cmd:"" help:"Serve the analytics dashboard."`
	Run   RunCmd   `cmd:"" help:"Run the pipeline once and print summary metrics."`
	Load  LoadCmd  `cmd:"" help:"Load a delimited-text source into a SQLite telemetry database."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("suntrack"),
		kong.Description("Analytics for a free-motion photovoltaic tracker: resampling, performance metrics and a single-operator dashboard."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
