package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrator applies the *.sql files of an fs.FS in lexical order, recording
// each applied file in schema_migrations.
type Migrator struct {
	db  *gorm.DB
	fs  fs.FS
	log *zap.SugaredLogger
}

func NewMigrator(db *gorm.DB, migrations fs.FS, log *zap.SugaredLogger) *Migrator {
	return &Migrator{db: db, fs: migrations, log: log}
}

// Run applies pending migrations and returns the names of those it applied.
// Each file runs in its own transaction.
func (m *Migrator) Run(ctx context.Context) ([]string, error) {
	db := m.db.WithContext(ctx)

	if err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`).Error; err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	var done []string
	if err := db.Raw("SELECT filename FROM schema_migrations").Scan(&done).Error; err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	applied := make(map[string]bool, len(done))
	for _, f := range done {
		applied[f] = true
	}

	files, err := fs.Glob(m.fs, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var ran []string
	for _, name := range files {
		if applied[name] {
			continue
		}
		content, err := fs.ReadFile(m.fs, name)
		if err != nil {
			return ran, fmt.Errorf("read migration %s: %w", name, err)
		}

		statements := SplitStatements(string(content))
		err = db.Transaction(func(tx *gorm.DB) error {
			for i, stmt := range statements {
				if err := tx.Exec(stmt).Error; err != nil {
					return fmt.Errorf("statement %d: %w", i+1, err)
				}
			}
			return tx.Exec("INSERT INTO schema_migrations (filename) VALUES (?)", name).Error
		})
		if err != nil {
			return ran, fmt.Errorf("migration %s: %w", name, err)
		}

		m.log.Infow("Applied migration", "file", name, "statements", len(statements))
		ran = append(ran, name)
	}

	return ran, nil
}

// SplitStatements splits a SQL script on statement-terminating semicolons,
// keeping $$-quoted bodies intact and dropping comment-only chunks.
func SplitStatements(script string) []string {
	var (
		statements []string
		current    strings.Builder
		inDollar   bool
	)

	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if !inDollar && (trimmed == "" || strings.HasPrefix(trimmed, "--")) {
			continue
		}
		if strings.Count(line, "$$")%2 == 1 {
			inDollar = !inDollar
		}

		current.WriteString(line)
		current.WriteString("\n")

		if !inDollar && strings.HasSuffix(trimmed, ";") {
			statements = append(statements, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	if rest := strings.TrimSpace(current.String()); rest != "" {
		statements = append(statements, rest)
	}
	return statements
}
