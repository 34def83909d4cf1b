package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jchantrell/quakefs/internal/catalog"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [sql]",
	Short: "Query the SQLite catalog directly from command line",
	Long: `Query allows you to execute SQL queries against the catalog written by the
catalog command, list available tables, or show table schemas.

Example:
  quakefs query "SELECT name, source FROM entries WHERE shadowed = 1"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		out := cmd.OutOrStdout()

		listTables, err := cmd.Flags().GetBool("tables")
		if err != nil {
			return fmt.Errorf("failed to get tables flag: %w", err)
		}
		schemaTable, err := cmd.Flags().GetString("schema")
		if err != nil {
			return fmt.Errorf("failed to get schema flag: %w", err)
		}

		slog.Debug("Query parameters",
			"database", cfg.Database,
			"list-tables", listTables,
			"schema", schemaTable)

		db, err := catalog.Open(catalog.DefaultOptions(cfg.Database))
		if err != nil {
			return fmt.Errorf("opening catalog: %w", err)
		}
		defer db.Close()

		// Handle --tables flag
		if listTables {
			tables, err := db.Tables(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, "Available tables:")
			for _, table := range tables {
				fmt.Fprintf(out, "  %s\n", table)
			}

			return nil
		}

		// Handle --schema flag
		if schemaTable != "" {
			slog.Debug("Getting table schema", "table", schemaTable)

			columns, err := db.TableInfo(ctx, schemaTable)
			if err != nil {
				return err
			}
			if len(columns) == 0 {
				return fmt.Errorf("no such table: %s", schemaTable)
			}

			fmt.Fprintf(out, "Schema for table '%s':\n", schemaTable)
			fmt.Fprintf(out, "%-20s %-15s %-10s %-10s %-10s\n",
				"Column", "Type", "NotNull", "Default", "Primary")
			fmt.Fprintln(out, strings.Repeat("-", 70))

			for _, col := range columns {
				defaultStr := "NULL"
				if col.Default != nil {
					defaultStr = *col.Default
				}

				fmt.Fprintf(out, "%-20s %-15s %-10s %-10s %-10s\n",
					col.Name, col.Type, yesNo(col.NotNull), defaultStr, yesNo(col.PrimaryKey))
			}

			return nil
		}

		// Handle SQL query execution
		if len(args) > 0 {
			query := args[0]
			slog.Debug("Executing SQL query", "query", query)

			rows, err := db.Query(ctx, query)
			if err != nil {
				return fmt.Errorf("executing query: %w", err)
			}
			defer rows.Close()

			columns, err := rows.Columns()
			if err != nil {
				return fmt.Errorf("getting column names: %w", err)
			}

			fmt.Fprintln(out, strings.Join(columns, "\t"))

			separators := make([]string, len(columns))
			for i, col := range columns {
				separators[i] = strings.Repeat("-", len(col))
			}
			fmt.Fprintln(out, strings.Join(separators, "\t"))

			for rows.Next() {
				values := make([]any, len(columns))
				valuePtrs := make([]any, len(columns))
				for i := range values {
					valuePtrs[i] = &values[i]
				}

				if err := rows.Scan(valuePtrs...); err != nil {
					return fmt.Errorf("scanning row: %w", err)
				}

				fields := make([]string, len(values))
				for i, val := range values {
					switch v := val.(type) {
					case nil:
						fields[i] = "NULL"
					case []byte:
						fields[i] = string(v)
					default:
						fields[i] = fmt.Sprint(v)
					}
				}
				fmt.Fprintln(out, strings.Join(fields, "\t"))
			}

			if err := rows.Err(); err != nil {
				return fmt.Errorf("iterating rows: %w", err)
			}

			return nil
		}

		return fmt.Errorf("no query provided, use --tables to list tables or --schema <table> to show schema")
	},
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().Bool("tables", false, "List available tables")
	queryCmd.Flags().String("schema", "", "Show schema for specified table")
}
