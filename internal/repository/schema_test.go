package repository

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// The fakes used by the service tests cannot notice when a query names a
// column the migrations never create. These tests parse the DDL and check
// every column list this package sends to Postgres against it.

type tableSchema struct {
	columns map[string]bool
	// NOT NULL without a DEFAULT; an INSERT that omits one of these fails.
	required map[string]bool
}

var (
	createTableRe = regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS (\w+) \((.*?)\n\);`)
	insertRe      = regexp.MustCompile(`(?s)INSERT INTO (\w+)\s*\(([^)]+)\)`)
	selectListRe  = regexp.MustCompile(`(?s)SELECT\s+([a-z_][a-z0-9_]*(?:\s*,\s*[a-z0-9_]+)+)\s+FROM\s+(\w+)`)
)

func loadSchema(t *testing.T) map[string]tableSchema {
	t.Helper()

	files, err := filepath.Glob(filepath.Join("..", "..", "migrations", "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	tables := map[string]tableSchema{}
	for _, file := range files {
		ddl, err := os.ReadFile(file)
		require.NoError(t, err)

		for _, match := range createTableRe.FindAllStringSubmatch(string(ddl), -1) {
			schema := tableSchema{columns: map[string]bool{}, required: map[string]bool{}}
			for _, line := range strings.Split(match[2], "\n") {
				line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ","))
				if line == "" {
					continue
				}
				name := strings.Fields(line)[0]
				switch name {
				case "PRIMARY", "CONSTRAINT", "UNIQUE", "FOREIGN", "CHECK":
					continue
				}
				schema.columns[name] = true
				if strings.Contains(line, "PRIMARY KEY") ||
					(strings.Contains(line, "NOT NULL") && !strings.Contains(line, "DEFAULT")) {
					schema.required[name] = true
				}
			}
			tables[match[1]] = schema
		}
	}
	return tables
}

func splitColumns(list string) []string {
	parts := strings.Split(list, ",")
	columns := make([]string, 0, len(parts))
	for _, part := range parts {
		if col := strings.TrimSpace(part); col != "" {
			columns = append(columns, col)
		}
	}
	return columns
}

func repositorySources(t *testing.T) map[string]string {
	t.Helper()

	files, err := filepath.Glob("*.go")
	require.NoError(t, err)

	sources := map[string]string{}
	for _, file := range files {
		if strings.HasSuffix(file, "_test.go") {
			continue
		}
		content, err := os.ReadFile(file)
		require.NoError(t, err)
		sources[file] = string(content)
	}
	return sources
}

func TestSharedColumnListsExistInSchema(t *testing.T) {
	tables := loadSchema(t)

	lists := map[string]string{
		"users":          userColumns,
		"friendships":    friendshipColumns,
		"friend_invites": inviteColumns,
		"media":          mediaColumns,
		"transcripts":    transcriptColumns,
	}
	for table, list := range lists {
		schema, ok := tables[table]
		require.True(t, ok, "table %s missing from migrations", table)
		for _, col := range splitColumns(list) {
			require.True(t, schema.columns[col], "%s.%s not declared in migrations", table, col)
		}
	}
}

func TestQueriedColumnsExistInSchema(t *testing.T) {
	tables := loadSchema(t)

	for file, source := range repositorySources(t) {
		for _, match := range insertRe.FindAllStringSubmatch(source, -1) {
			schema, ok := tables[match[1]]
			require.True(t, ok, "%s inserts into unknown table %s", file, match[1])
			for _, col := range splitColumns(match[2]) {
				require.True(t, schema.columns[col], "%s inserts %s.%s which migrations never create", file, match[1], col)
			}
		}
		for _, match := range selectListRe.FindAllStringSubmatch(source, -1) {
			schema, ok := tables[match[2]]
			require.True(t, ok, "%s selects from unknown table %s", file, match[2])
			for _, col := range splitColumns(match[1]) {
				require.True(t, schema.columns[col], "%s selects %s.%s which migrations never create", file, match[2], col)
			}
		}
	}
}

func TestInsertsCoverColumnsWithoutDefaults(t *testing.T) {
	tables := loadSchema(t)

	for file, source := range repositorySources(t) {
		for _, match := range insertRe.FindAllStringSubmatch(source, -1) {
			schema, ok := tables[match[1]]
			require.True(t, ok, "%s inserts into unknown table %s", file, match[1])

			inserted := map[string]bool{}
			for _, col := range splitColumns(match[2]) {
				inserted[col] = true
			}
			for col := range schema.required {
				require.True(t, inserted[col], "%s insert into %s omits %s which has no default", file, match[1], col)
			}
		}
	}
}
