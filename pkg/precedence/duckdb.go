package precedence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/tokenflow/tokenflow/internal/model"
)

// DuckDBDeriver derives precedence rows from a CSV event log using DuckDB's
// native CSV reader and LEAD window functions. This is the fast path for
// large logs; it treats every event as instantaneous (no lifecycle pairing).
type DuckDBDeriver struct {
	db *sql.DB
}

// NewDuckDBDeriver opens an in-memory DuckDB instance.
func NewDuckDBDeriver() (*DuckDBDeriver, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	return &DuckDBDeriver{db: db}, nil
}

// Close releases the database.
func (d *DuckDBDeriver) Close() error {
	return d.db.Close()
}

// DeriveCSV reads the CSV at path and returns one precedence row per event
// per case, ordered by case then timestamp. A case's last event carries NULL
// lead fields; it still contributes to case bounds downstream.
func (d *DuckDBDeriver) DeriveCSV(ctx context.Context, path, caseCol, activityCol, timestampCol string) ([]model.PrecedenceEdge, error) {
	query := fmt.Sprintf(`
		WITH ordered AS (
			SELECT
				"%s" AS case_id,
				"%s" AS activity,
				"%s" AS ts,
				ROW_NUMBER() OVER (ORDER BY "%s") AS min_order
			FROM read_csv_auto('%s')
			WHERE "%s" IS NOT NULL
		)
		SELECT
			case_id,
			activity AS from_activity,
			LEAD(activity) OVER w AS to_activity,
			ts AS start_time,
			ts AS end_time,
			LEAD(ts) OVER w AS next_start_time,
			LEAD(ts) OVER w AS next_end_time,
			min_order
		FROM ordered
		WINDOW w AS (PARTITION BY case_id ORDER BY ts, min_order)
		ORDER BY case_id, min_order
	`, caseCol, activityCol, timestampCol, timestampCol, escapePath(path), timestampCol)

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("precedence query failed: %w", err)
	}
	defer rows.Close()

	var out []model.PrecedenceEdge
	for rows.Next() {
		var (
			caseID, from                     string
			to                               sql.NullString
			startT, endT, nextStart, nextEnd interface{}
			minOrder                         int64
		)
		if err := rows.Scan(&caseID, &from, &to, &startT, &endT, &nextStart, &nextEnd, &minOrder); err != nil {
			return nil, err
		}
		out = append(out, model.PrecedenceEdge{
			CaseID:        caseID,
			FromActivity:  from,
			ToActivity:    to.String,
			StartTime:     scanTime(startT),
			EndTime:       scanTime(endT),
			NextStartTime: scanTime(nextStart),
			NextEndTime:   scanTime(nextEnd),
			MinOrder:      minOrder,
		})
	}

	return out, rows.Err()
}

// scanTime converts a scanned timestamp value into a NullTime.
func scanTime(v interface{}) model.NullTime {
	switch t := v.(type) {
	case time.Time:
		return model.TimeOf(t)
	case int64:
		return model.NanosOf(t)
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return model.TimeOf(parsed)
		}
	}
	return model.NullTime{}
}

func escapePath(path string) string {
	return strings.ReplaceAll(path, "'", "''")
}
