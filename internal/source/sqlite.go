package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// telemetryTable is the fixed table name a relational source must
// provide.
const telemetryTable = "telemetry"

// loadSQLite reads the telemetry table of a SQLite database file. The
// query hint, when present, becomes a parameterized predicate so the
// database does the coarse filtering; the pipeline's filter stage
// still runs afterwards and is the authority on boundary semantics.
func loadSQLite(ctx context.Context, path string, q Query) ([]Record, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrSourceUnavailable, path, err)
	}
	defer db.Close()

	query := "SELECT * FROM " + telemetryTable
	var conds []string
	var args []any
	if q.SiteID != "" {
		conds = append(conds, "site_id = ?")
		args = append(args, q.SiteID)
	}
	if !q.Start.IsZero() {
		conds = append(conds, "ts_utc >= ?")
		args = append(args, q.Start.UTC().Format(time.RFC3339))
	}
	if !q.End.IsZero() {
		conds = append(conds, "ts_utc < ?")
		args = append(args, q.End.UTC().Format(time.RFC3339))
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s in %s: %v", ErrSourceUnavailable, telemetryTable, path, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var records []Record
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		rec := make(Record, len(cols))
		for i, col := range cols {
			rec[col] = stringifyValue(values[i])
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return records, nil
}

func stringifyValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
