// Package catalog loads known variant identifiers (e.g. a dbSNP VCF or a
// plain TSV export) into a probabilistic set. Files are read through
// DuckDB's read_csv, which also handles gzip and zstd compression.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"
)

// DefaultColumn is the 1-based catalog column holding identifiers; it
// matches the ID column of a VCF.
const DefaultColumn = 3

// Set receives identifiers.
type Set interface {
	AddString(key string)
}

// Loader reads catalogs with an in-memory DuckDB connection.
type Loader struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open creates a loader backed by an in-memory DuckDB database.
func Open() (*Loader, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &Loader{db: db, logger: zap.NewNop()}, nil
}

// SetLogger sets the logger for progress messages.
func (l *Loader) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// Close closes the database connection.
func (l *Loader) Close() error {
	return l.db.Close()
}

// Load inserts every identifier found in the given 1-based column of the
// tab-delimited file at path into set and returns how many were added.
// Lines starting with '#' are skipped; a value may hold several
// identifiers separated by ';'; "." and empty values are ignored.
func (l *Loader) Load(ctx context.Context, path string, column int, set Set) (int, error) {
	if column < 1 {
		return 0, fmt.Errorf("catalog column must be >= 1, got %d", column)
	}

	query := fmt.Sprintf(`SELECT * FROM read_csv(%s,
		delim='\t', header=false, comment='#',
		all_varchar=true, null_padding=true)`, quoteLiteral(path))

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("read catalog %s: %w", path, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, fmt.Errorf("read catalog columns: %w", err)
	}
	if column > len(cols) {
		return 0, fmt.Errorf("catalog %s has %d columns, identifier column %d requested", path, len(cols), column)
	}

	values := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}

	added := 0
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return added, fmt.Errorf("scan catalog row: %w", err)
		}
		v := values[column-1]
		if !v.Valid {
			continue
		}
		added += addIdentifiers(set, v.String)
	}
	if err := rows.Err(); err != nil {
		return added, fmt.Errorf("iterate catalog rows: %w", err)
	}

	l.logger.Debug("loaded known identifiers",
		zap.String("path", path),
		zap.Int("column", column),
		zap.Int("identifiers", added))
	return added, nil
}

func addIdentifiers(set Set, value string) int {
	n := 0
	for _, id := range strings.Split(value, ";") {
		id = strings.TrimSpace(id)
		if id == "" || id == "." {
			continue
		}
		set.AddString(id)
		n++
	}
	return n
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
