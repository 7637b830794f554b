package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"

	"bmcount/domain/countdata"
	"bmcount/internal/errors"
	"bmcount/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// countRow is one aggregated row: a value and how often it occurs. A NULL
// value is a missing observation.
type countRow struct {
	Value sql.NullFloat64 `db:"value"`
	Count int64           `db:"count"`
}

// countSource implements the CountSource interface over SQL queries
type countSource struct {
	db      *sqlx.DB
	queries map[string]string
}

// Open connects to the database at url using the postgres driver.
func Open(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to count database", err)
	}
	return db, nil
}

// NewCountSource creates a CountSource that runs one query per group. Each
// query must return columns named value and count, for example
//
//	SELECT score AS value, COUNT(*) AS count FROM responses WHERE arm = 'a' GROUP BY score
func NewCountSource(db *sqlx.DB, queries map[string]string) ports.CountSource {
	return &countSource{db: db, queries: queries}
}

func (s *countSource) Groups(ctx context.Context) ([]string, error) {
	groups := make([]string, 0, len(s.queries))
	for g := range s.queries {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups, nil
}

// LoadCounts runs the query of group and aggregates its rows
func (s *countSource) LoadCounts(ctx context.Context, group string) (countdata.CountMap[float64], error) {
	query, ok := s.queries[group]
	if !ok {
		return nil, errors.NotFound("group " + group)
	}

	var rows []countRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to load counts for group %s", group), err)
	}

	return countsFromRows(rows)
}

func countsFromRows(rows []countRow) (countdata.CountMap[float64], error) {
	counts := make(countdata.CountMap[float64], len(rows))
	for _, row := range rows {
		if row.Count > math.MaxInt32 {
			return nil, errors.ValidationError(fmt.Sprintf("count %d exceeds the supported range", row.Count))
		}
		value := math.NaN()
		if row.Value.Valid {
			value = row.Value.Float64
		}
		counts[value] += int(row.Count)
	}
	return counts, nil
}
