package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ratthapon/suntrack/internal/chart"
	"github.com/ratthapon/suntrack/internal/config"
	"github.com/ratthapon/suntrack/internal/export"
	"github.com/ratthapon/suntrack/internal/pipeline"
	"github.com/ratthapon/suntrack/internal/source"
)

const dateLayout = "2006-01-02"

// chartSpec pairs a canonical field with its display title.
type chartSpec struct {
	Field string
	Title string
}

var chartSpecs = []chartSpec{
	{"dc_power", "DC Power (W)"},
	{"irradiance_wm2", "Irradiance (W/m²)"},
	{"panel_temp_c", "Panel Temperature (°C)"},
	{"wind_ms", "Wind Speed (m/s)"},
	{"tracker_az_deg", "Tracker Azimuth (°)"},
	{"tracker_el_deg", "Tracker Elevation (°)"},
}

// parseConfig builds the immutable run configuration from query
// parameters, falling back to server defaults and site profiles.
func (s *Server) parseConfig(r *http.Request) (pipeline.Config, error) {
	q := r.URL.Query()

	get := func(key, fallback string) string {
		if v := q.Get(key); v != "" {
			return v
		}
		return fallback
	}

	cfg := pipeline.Config{
		Source:         get("source", s.defaults.Source),
		SiteID:         get("site", s.defaults.SiteID),
		CadenceMinutes: s.defaults.CadenceMinutes,
	}
	if v := q.Get("cadence"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("bad cadence %q", v)
		}
		cfg.CadenceMinutes = n
	}
	for _, p := range []struct {
		key  string
		dest *time.Time
	}{{"start", &cfg.Start}, {"end", &cfg.End}} {
		if v := q.Get(p.key); v != "" {
			t, err := time.ParseInLocation(dateLayout, v, time.UTC)
			if err != nil {
				return cfg, fmt.Errorf("bad %s date %q (want YYYY-MM-DD)", p.key, v)
			}
			*p.dest = t
		}
	}

	var area, eff, baseline float64
	for _, p := range []struct {
		key  string
		dest *float64
	}{{"area", &area}, {"eff", &eff}, {"baseline", &baseline}} {
		if v := q.Get(p.key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return cfg, fmt.Errorf("bad %s %q", p.key, v)
			}
			*p.dest = f
		}
	}
	if area == 0 {
		area = s.defaults.PanelAreaM2
	}
	if eff == 0 {
		eff = s.defaults.ModuleEff
	}
	if baseline == 0 {
		baseline = s.defaults.Baseline
	}
	area, eff, baseline = config.Resolve(s.defaults.Profiles, cfg.SiteID, area, eff, baseline)
	cfg.Reference = pipeline.ReferenceParams{PanelAreaM2: area, ModuleEff: eff, FixedPRBaseline: baseline}

	return cfg, nil
}

// pageData feeds the dashboard template. Exactly one of Error, Empty
// or Summary is meaningful; the form echoes the requested values
// either way.
type pageData struct {
	Source     string
	SiteID     string
	Start      string
	End        string
	Cadence    int
	Area       float64
	Eff        float64
	Baseline   float64
	Cadences   []int
	Charts     []chartSpec
	FieldNames []string
	Sites      []string
	RawQuery   string

	Error   string
	Empty   bool
	Summary *SummaryView
	Buckets []BucketView
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	cfg, err := s.parseConfig(r)
	data := pageData{
		Source:   cfg.Source,
		SiteID:   cfg.SiteID,
		Cadence:  cfg.CadenceMinutes,
		Area:     cfg.Reference.PanelAreaM2,
		Eff:      cfg.Reference.ModuleEff,
		Baseline: cfg.Reference.FixedPRBaseline,
		Cadences:   pipeline.Cadences,
		Charts:     chartSpecs,
		FieldNames: fieldNames(),
		Sites:      s.defaults.Sites,
		RawQuery:   r.URL.RawQuery,
	}
	if !cfg.Start.IsZero() {
		data.Start = cfg.Start.Format(dateLayout)
	}
	if !cfg.End.IsZero() {
		data.End = cfg.End.Format(dateLayout)
	}
	if err != nil {
		data.Error = err.Error()
		s.renderIndex(w, data)
		return
	}

	res, err := s.pipe.Run(r.Context(), cfg)
	switch {
	case errors.Is(err, pipeline.ErrEmptyResult):
		data.Empty = true
	case err != nil:
		data.Error = err.Error()
	default:
		sv := summaryView(res)
		data.Summary = &sv
		data.Buckets = bucketViews(res.Buckets)
	}
	s.renderIndex(w, data)
}

func (s *Server) renderIndex(w http.ResponseWriter, data pageData) {
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("template error: %v", err)
	}
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	res, ok := s.runForRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, summaryView(res))
}

func (s *Server) handleAPIBuckets(w http.ResponseWriter, r *http.Request) {
	res, ok := s.runForRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, bucketViews(res.Buckets))
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	res, ok := s.runForRequest(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="suntrack_resampled.csv"`)
	if err := export.WriteCSV(w, res.Buckets, res.Config.CadenceMinutes); err != nil {
		log.Printf("export: %v", err)
	}
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	field := r.URL.Query().Get("field")
	if field == "" {
		field = "dc_power"
	}
	title := field
	for _, spec := range chartSpecs {
		if spec.Field == field {
			title = spec.Title
		}
	}

	key := r.URL.RawQuery
	if img, ok := s.charts.get(key); ok {
		w.Header().Set("Content-Type", "image/png")
		w.Write(img)
		return
	}

	res, ok := s.runForRequest(w, r)
	if !ok {
		return
	}
	img, err := chart.Render(res.Buckets, field, title)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.charts.set(key, img)
	w.Header().Set("Content-Type", "image/png")
	w.Write(img)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

// runForRequest executes the pipeline for an API request and maps the
// error taxonomy onto HTTP statuses. Empty selections are 404 with a
// distinct message, never 500.
func (s *Server) runForRequest(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	cfg, err := s.parseConfig(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return nil, false
	}
	res, err := s.pipe.Run(r.Context(), cfg)
	switch {
	case err == nil:
		return res, true
	case errors.Is(err, pipeline.ErrEmptyResult):
		writeJSONError(w, http.StatusNotFound, err)
	case errors.Is(err, source.ErrSourceUnavailable), errors.Is(err, pipeline.ErrSchemaMissing):
		writeJSONError(w, http.StatusBadGateway, err)
	default:
		writeJSONError(w, http.StatusBadRequest, err)
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
