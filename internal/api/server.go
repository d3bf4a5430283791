// Package api serves the operator dashboard: an HTML page over the
// pipeline plus JSON, CSV-export and chart endpoints. Every request is
// one independent pipeline run; the server holds no state between
// requests beyond the reader's TTL cache.
package api

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ratthapon/suntrack/internal/models"
	"github.com/ratthapon/suntrack/internal/pipeline"
)

//go:embed templates/*
var templateFS embed.FS

// Defaults seed request parsing when a query parameter is absent.
// Sites, when known (the default source is a telemetry database),
// feeds the site control's suggestion list.
type Defaults struct {
	Source         string
	SiteID         string
	CadenceMinutes int
	PanelAreaM2    float64
	ModuleEff      float64
	Baseline       float64
	Profiles       map[string]models.SiteProfile
	Sites          []string
}

type Server struct {
	pipe     *pipeline.Pipeline
	port     string
	defaults Defaults
	tmpl     *template.Template
	charts   *renderCache
}

func NewServer(pipe *pipeline.Pipeline, port string, defaults Defaults) *Server {
	funcs := template.FuncMap{
		"fmtf": func(prec int, f *float64) string {
			if f == nil {
				return "n/a"
			}
			return fmt.Sprintf("%.*f", prec, *f)
		},
	}
	tmpl := template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))

	if defaults.CadenceMinutes == 0 {
		defaults.CadenceMinutes = 5
	}
	return &Server{
		pipe:     pipe,
		port:     port,
		defaults: defaults,
		tmpl:     tmpl,
		charts:   newRenderCache(15 * time.Second),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/export.csv", s.handleExportCSV)
	mux.HandleFunc("/chart.png", s.handleChart)
	mux.HandleFunc("/api/summary", s.handleAPISummary)
	mux.HandleFunc("/api/buckets", s.handleAPIBuckets)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
