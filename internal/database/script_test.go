// SPDX-License-Identifier: Apache-2.0

package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		output []string
	}{
		{
			name:   "empty input",
			input:  "",
			output: nil,
		},
		{
			name:   "whitespace only",
			input:  " \n\t ;;\n ; ",
			output: nil,
		},
		{
			name:   "single statement without terminator",
			input:  "CREATE TABLE users (id INTEGER)",
			output: []string{"CREATE TABLE users (id INTEGER)"},
		},
		{
			name:  "two statements",
			input: "CREATE TABLE users (id INTEGER);\nINSERT INTO users VALUES (1);\n",
			output: []string{
				"CREATE TABLE users (id INTEGER)",
				"INSERT INTO users VALUES (1)",
			},
		},
		{
			name:   "semicolon inside single quotes",
			input:  "INSERT INTO t VALUES ('a;b');",
			output: []string{"INSERT INTO t VALUES ('a;b')"},
		},
		{
			name:   "escaped quote inside string",
			input:  "INSERT INTO t VALUES ('it''s; fine');",
			output: []string{"INSERT INTO t VALUES ('it''s; fine')"},
		},
		{
			name:   "semicolon inside quoted identifier",
			input:  `CREATE TABLE "odd;name" (id INTEGER);`,
			output: []string{`CREATE TABLE "odd;name" (id INTEGER)`},
		},
		{
			name:   "semicolon inside line comment",
			input:  "SELECT 1 -- trailing; not a terminator\n;",
			output: []string{"SELECT 1 -- trailing; not a terminator"},
		},
		{
			name:   "comment only segment is dropped",
			input:  "-- header comment\n;SELECT 1;",
			output: []string{"SELECT 1"},
		},
		{
			name:  "comment travels with its statement",
			input: "-- creates the users table\nCREATE TABLE users (id INTEGER);",
			output: []string{
				"-- creates the users table\nCREATE TABLE users (id INTEGER)",
			},
		},
		{
			name:   "semicolon inside block comment",
			input:  "SELECT /* a; b */ 1;",
			output: []string{"SELECT /* a; b */ 1"},
		},
		{
			name:   "nested block comment",
			input:  "SELECT /* outer /* inner; */ still; outer */ 1;",
			output: []string{"SELECT /* outer /* inner; */ still; outer */ 1"},
		},
		{
			name:  "dollar quoted function body",
			input: "CREATE FUNCTION f() RETURNS void AS $$ BEGIN SELECT 1; END; $$ LANGUAGE plpgsql;SELECT 2;",
			output: []string{
				"CREATE FUNCTION f() RETURNS void AS $$ BEGIN SELECT 1; END; $$ LANGUAGE plpgsql",
				"SELECT 2",
			},
		},
		{
			name:   "tagged dollar quoting",
			input:  "SELECT $body$ one; two $$ three $body$;",
			output: []string{"SELECT $body$ one; two $$ three $body$"},
		},
		{
			name:   "positional parameter is not a dollar quote",
			input:  "SELECT $1; SELECT $2;",
			output: []string{"SELECT $1", "SELECT $2"},
		},
		{
			name:   "unterminated string consumes the rest",
			input:  "INSERT INTO t VALUES ('oops; SELECT 1;",
			output: []string{"INSERT INTO t VALUES ('oops; SELECT 1;"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.output, SplitStatements(test.input))
		})
	}
}

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunStatements(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	stmts := SplitStatements(`
		-- sample schema
		CREATE TABLE collections (id INTEGER PRIMARY KEY, name TEXT);
		INSERT INTO collections (name) VALUES ('amp-icmp');
		INSERT INTO collections (name) VALUES ('amp-traceroute');
	`)
	require.Len(t, stmts, 3)

	executed, err := runStatements(ctx, db, stmts)
	require.NoError(t, err)
	assert.Equal(t, 3, executed)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM collections").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestRunStatements_FailureKeepsEarlierStatements(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	stmts := []string{
		"CREATE TABLE collections (id INTEGER PRIMARY KEY, name TEXT)",
		"INSERT INTO collections (name) VALUES ('amp-icmp')",
		"INSERT INTO no_such_table (name) VALUES ('broken')",
		"INSERT INTO collections (name) VALUES ('never-runs')",
	}

	executed, err := runStatements(ctx, db, stmts)
	require.Error(t, err)
	assert.True(t, errorx.IsOfType(err, ScriptError))
	assert.Contains(t, err.Error(), "statement 3 of 4")
	assert.Equal(t, 2, executed)

	// No surrounding transaction: work done before the failure is kept.
	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM collections").Scan(&count))
	assert.Equal(t, 1, count)
}
