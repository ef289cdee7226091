// Package migrate applies the SQL files under migrations/ in name order,
// each inside its own transaction.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/ignite/invoice-admin/internal/pkg/logger"
)

var (
	okLabel  = color.New(color.FgGreen).SprintFunc()
	errLabel = color.New(color.FgRed).SprintFunc()
)

// Result counts applied and failed migration files.
type Result struct {
	Applied int
	Failed  int
	Skipped int
}

// Files returns the .sql files in dir, sorted by name.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Apply runs every migration file in dir. A failing file is rolled back and
// reported; the remaining files still run. Progress lines go to out.
func Apply(ctx context.Context, db *sql.DB, dir string, out io.Writer) (Result, error) {
	var res Result
	files, err := Files(dir)
	if err != nil {
		return res, err
	}

	for _, f := range files {
		path := filepath.Join(dir, f)
		data, err := os.ReadFile(path)
		if err != nil {
			return res, fmt.Errorf("read %s: %w", path, err)
		}
		content := string(data)
		if strings.TrimSpace(content) == "" {
			res.Skipped++
			continue
		}
		fmt.Fprintf(out, "  %s ... ", f)

		if err := applyFile(ctx, db, content); err != nil {
			fmt.Fprintln(out, errLabel(fmt.Sprintf("ERROR: %v", err)))
			logger.Error("migration failed", "file", f, "error", err)
			res.Failed++
			continue
		}
		fmt.Fprintln(out, okLabel("OK"))
		res.Applied++
	}

	if res.Failed > 0 {
		return res, fmt.Errorf("%d of %d migrations failed", res.Failed, res.Applied+res.Failed)
	}
	return res, nil
}

func applyFile(ctx context.Context, db *sql.DB, content string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if _, err := tx.ExecContext(ctx, content); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Tables lists the public tables this service owns.
func Tables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public' AND tablename IN ('customers', 'invoices')
		ORDER BY tablename`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}
