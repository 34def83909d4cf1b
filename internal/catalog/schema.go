package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// Catalog table names
const (
	SourcesTable = "sources"
	EntriesTable = "entries"
)

// Column is one column of a catalog table
type Column struct {
	Name string
	Type string
}

var sourceColumns = []Column{
	{"priority", "INTEGER NOT NULL PRIMARY KEY"},
	{"kind", "TEXT NOT NULL"},
	{"location", "TEXT NOT NULL"},
	{"skipped", "INTEGER NOT NULL"},
	{"files", "INTEGER NOT NULL"},
}

var entryColumns = []Column{
	{"priority", "INTEGER NOT NULL"},
	{"source", "TEXT NOT NULL"},
	{"kind", "TEXT NOT NULL"},
	{"name", "TEXT NOT NULL"},
	{"offset", "INTEGER NOT NULL"},
	{"size", "INTEGER NOT NULL"},
	{"shadowed", "INTEGER NOT NULL"},
}

// GenerateTableDDL creates the CREATE TABLE statement for a table
func GenerateTableDDL(table string, columns []Column) string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = fmt.Sprintf("%s %s", quoteSQLIdentifier(col.Name), col.Type)
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)",
		quoteSQLIdentifier(table),
		strings.Join(defs, ",\n  "))
}

// CreateSchema drops and recreates the catalog tables in one transaction
func (c *Catalog) CreateSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteSQLIdentifier(EntriesTable)),
		fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteSQLIdentifier(SourcesTable)),
		GenerateTableDDL(SourcesTable, sourceColumns),
		GenerateTableDDL(EntriesTable, entryColumns),
		fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
			quoteSQLIdentifier("idx_entries_name"),
			quoteSQLIdentifier(EntriesTable),
			quoteSQLIdentifier("name")),
	}

	tx, err := c.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		slog.Debug("Executing DDL", "sql", stmt)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema: %w", err)
	}

	return nil
}

// ColumnInfo describes a column as reported by PRAGMA table_info
type ColumnInfo struct {
	Name       string
	Type       string
	NotNull    bool
	Default    *string
	PrimaryKey bool
}

// TableInfo returns the columns of table, or none if it does not exist
func (c *Catalog) TableInfo(ctx context.Context, table string) ([]ColumnInfo, error) {
	rows, err := c.Query(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteSQLIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("getting schema for table %s: %w", table, err)
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var cid, notNull, pk int
		var col ColumnInfo
		var dflt sql.NullString
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scanning schema row: %w", err)
		}
		col.NotNull = notNull != 0
		col.PrimaryKey = pk != 0
		if dflt.Valid {
			col.Default = &dflt.String
		}
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schema: %w", err)
	}

	return columns, nil
}

// quoteSQLIdentifier quotes an identifier for SQLite, doubling embedded quotes
func quoteSQLIdentifier(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
