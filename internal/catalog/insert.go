package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mattn/go-sqlite3"
)

// BulkInserter handles batched insertion of catalog rows
type BulkInserter struct {
	catalog       *Catalog
	batchSize     int
	maxRetries    int
	retryInterval time.Duration
}

// BulkInsertOptions configures bulk insertion behavior
type BulkInsertOptions struct {
	// BatchSize determines how many rows to insert per transaction
	BatchSize int

	// MaxRetries sets how many times a batch is retried while the database
	// is busy or locked by another connection. Zero disables retrying.
	MaxRetries int

	// RetryInterval is the first backoff delay; later ones grow from it
	RetryInterval time.Duration
}

// DefaultBulkInsertOptions returns sensible defaults for bulk insertion
func DefaultBulkInsertOptions() *BulkInsertOptions {
	return &BulkInsertOptions{
		BatchSize:     1000,
		MaxRetries:    3,
		RetryInterval: 250 * time.Millisecond,
	}
}

// NewBulkInserter creates a new bulk inserter for the given catalog
func NewBulkInserter(c *Catalog, options *BulkInsertOptions) *BulkInserter {
	if options == nil {
		options = DefaultBulkInsertOptions()
	}

	batchSize := options.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBulkInsertOptions().BatchSize
	}

	retryInterval := options.RetryInterval
	if retryInterval <= 0 {
		retryInterval = DefaultBulkInsertOptions().RetryInterval
	}

	return &BulkInserter{
		catalog:       c,
		batchSize:     batchSize,
		maxRetries:    max(options.MaxRetries, 0),
		retryInterval: retryInterval,
	}
}

// InsertSources inserts source rows in a single transaction
func (bi *BulkInserter) InsertSources(ctx context.Context, sources []Source) error {
	values := make([][]any, len(sources))
	for i, s := range sources {
		values[i] = []any{s.Priority, s.Kind, s.Location, boolToInt(s.Skipped), s.Files}
	}
	return bi.insertWithRetry(ctx, generateInsertSQL(SourcesTable, sourceColumns), values)
}

// InsertEntries inserts entry rows, one transaction per batch. progress, if
// non-nil, is called after each committed batch.
func (bi *BulkInserter) InsertEntries(ctx context.Context, entries []EntryRow, progress func(inserted int)) error {
	insertSQL := generateInsertSQL(EntriesTable, entryColumns)

	for i := 0; i < len(entries); i += bi.batchSize {
		end := min(i+bi.batchSize, len(entries))

		values := make([][]any, 0, end-i)
		for _, e := range entries[i:end] {
			values = append(values, []any{e.Priority, e.Source, e.Kind, e.Name, e.Offset, e.Size, boolToInt(e.Shadowed)})
		}

		if err := bi.insertWithRetry(ctx, insertSQL, values); err != nil {
			return fmt.Errorf("inserting batch %d-%d: %w", i, end-1, err)
		}

		if progress != nil {
			progress(end)
		}
	}

	return nil
}

// generateInsertSQL creates the INSERT statement for a table
func generateInsertSQL(table string, columns []Column) string {
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteSQLIdentifier(col.Name)
		placeholders[i] = "?"
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteSQLIdentifier(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "))
}

// insertWithRetry runs insertBatch, backing off and retrying up to
// maxRetries times while SQLite reports the database busy or locked
func (bi *BulkInserter) insertWithRetry(ctx context.Context, insertSQL string, rows [][]any) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(bi.newBackOff(), uint64(bi.maxRetries)),
		ctx)

	attempt := 0
	operation := func() error {
		attempt++
		err := bi.insertBatch(ctx, insertSQL, rows)
		if err != nil && !isBusy(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	// notify only runs when another attempt follows.
	notify := func(err error, wait time.Duration) {
		slog.Warn("Catalog busy, retrying batch",
			"attempt", attempt,
			"max_retries", bi.maxRetries,
			"wait", wait,
			"rows", len(rows),
			"error", err)
	}

	return backoff.RetryNotify(operation, policy, notify)
}

func (bi *BulkInserter) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = bi.retryInterval
	return b
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

// insertBatch inserts a single batch of rows within a transaction
func (bi *BulkInserter) insertBatch(ctx context.Context, insertSQL string, rows [][]any) error {
	tx, err := bi.catalog.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Safe to call even after commit

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for i, values := range rows {
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return fmt.Errorf("inserting row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
