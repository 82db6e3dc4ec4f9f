package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ImportRecord is one row of the import history.
type ImportRecord struct {
	ID        int64
	Source    string
	Imported  int
	Groups    int
	Skipped   int
	CreatedAt time.Time
}

// RecordImport appends an entry to the import history.
func RecordImport(ctx context.Context, db *sql.DB, r ImportRecord) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO import_log (source, imported, group_count, skipped) VALUES (?, ?, ?, ?)",
		r.Source, r.Imported, r.Groups, r.Skipped,
	)
	if err != nil {
		return fmt.Errorf("insert import record: %w", err)
	}
	return nil
}

// ListImports returns the import history, newest first.
func ListImports(ctx context.Context, db *sql.DB) ([]ImportRecord, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, source, imported, group_count, skipped, created_at FROM import_log ORDER BY created_at DESC, id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("query imports: %w", err)
	}
	defer rows.Close()

	var result []ImportRecord
	for rows.Next() {
		var r ImportRecord
		if err := rows.Scan(&r.ID, &r.Source, &r.Imported, &r.Groups, &r.Skipped, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate imports: %w", err)
	}
	return result, nil
}

// ImportLog binds the import history functions to one database.
type ImportLog struct {
	db *sql.DB
}

// NewImportLog returns the import history stored in db.
func NewImportLog(db *sql.DB) *ImportLog {
	return &ImportLog{db: db}
}

func (l *ImportLog) Record(ctx context.Context, r ImportRecord) error {
	return RecordImport(ctx, l.db, r)
}

func (l *ImportLog) List(ctx context.Context) ([]ImportRecord, error) {
	return ListImports(ctx, l.db)
}
