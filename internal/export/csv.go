// Package export writes the resampled bucket table as delimited text.
// The header uses the same canonical column names the normalizer
// accepts, so an export re-parses into the same bucket set.
package export

import (
	"database/sql"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/ratthapon/suntrack/internal/models"
)

// WriteCSV renders buckets plus a derived per-bucket energy column.
// Missing values become empty cells, never zeros; the energy column
// alone treats missing power as zero, matching the summary integral.
func WriteCSV(w io.Writer, buckets []models.ResampledBucket, cadenceMinutes int) error {
	cw := csv.NewWriter(w)

	header := []string{"ts_utc", "site_id"}
	for _, f := range models.Fields {
		header = append(header, f.Name)
	}
	header = append(header, "energy_wh")
	if err := cw.Write(header); err != nil {
		return err
	}

	hours := float64(cadenceMinutes) / 60.0
	for _, b := range buckets {
		row := make([]string, 0, len(header))
		row = append(row, b.BucketStart.UTC().Format(time.RFC3339), b.SiteID)
		for _, f := range models.Fields {
			row = append(row, formatNull(f.Get(&b.TelemetryValues)))
		}
		energy := 0.0
		if b.DCPower.Valid {
			energy = b.DCPower.Float64 * hours
		}
		row = append(row, strconv.FormatFloat(energy, 'f', -1, 64))
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatNull(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}
