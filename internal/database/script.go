// SPDX-License-Identifier: Apache-2.0

package database

import (
	"context"
	"database/sql"
	"strings"
)

// SplitStatements splits SQL text into individual statements on unquoted
// semicolons. Semicolons inside single quotes, double quotes, dollar-quoted
// strings, line comments and block comments do not end a statement.
// Comments travel with the statement they precede; segments containing only
// whitespace and comments are dropped.
//
// The input is expected to be plain SQL, one statement after another, the
// way pg_dump emits it. psql meta-commands and COPY ... FROM stdin payloads
// are not supported.
func SplitStatements(text string) []string {
	var stmts []string
	var buf strings.Builder
	content := false

	flush := func() {
		stmt := strings.TrimSpace(buf.String())
		if content && stmt != "" {
			stmts = append(stmts, stmt)
		}
		buf.Reset()
		content = false
	}

	i := 0
	n := len(text)
	for i < n {
		c := text[i]
		switch {
		case c == ';':
			flush()
			i++
		case c == '-' && i+1 < n && text[i+1] == '-':
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				buf.WriteString(text[i:])
				i = n
			} else {
				buf.WriteString(text[i : i+end+1])
				i += end + 1
			}
		case c == '/' && i+1 < n && text[i+1] == '*':
			end := skipBlockComment(text, i)
			buf.WriteString(text[i:end])
			i = end
		case c == '\'' || c == '"':
			end := skipQuoted(text, i, c)
			buf.WriteString(text[i:end])
			content = true
			i = end
		case c == '$':
			if tag, ok := dollarTag(text, i); ok {
				end := skipDollarQuoted(text, i, tag)
				buf.WriteString(text[i:end])
			} else {
				buf.WriteByte(c)
				i++
			}
			content = true
		default:
			if !content && c != ' ' && c != '\t' && c != '\n' && c != '\r' {
				content = true
			}
			buf.WriteByte(c)
			i++
		}
	}
	flush()

	return stmts
}

// skipQuoted returns the index just past the closing quote. A doubled quote
// inside the string is an escaped literal, not a terminator. An unterminated
// string consumes the rest of the input.
func skipQuoted(text string, start int, quote byte) int {
	i := start + 1
	for i < len(text) {
		if text[i] != quote {
			i++
			continue
		}
		if i+1 < len(text) && text[i+1] == quote {
			i += 2
			continue
		}
		return i + 1
	}
	return len(text)
}

// skipBlockComment returns the index just past the matching close marker.
// PostgreSQL block comments nest.
func skipBlockComment(text string, start int) int {
	depth := 0
	i := start
	for i < len(text) {
		if i+1 < len(text) && text[i] == '/' && text[i+1] == '*' {
			depth++
			i += 2
			continue
		}
		if i+1 < len(text) && text[i] == '*' && text[i+1] == '/' {
			depth--
			i += 2
			if depth == 0 {
				return i
			}
			continue
		}
		i++
	}
	return len(text)
}

// dollarTag reports whether text[start:] opens a dollar-quoted string and
// returns the full delimiter including both dollar signs. A digit right
// after the opening dollar sign is a positional parameter, not a tag.
func dollarTag(text string, start int) (string, bool) {
	for i := start + 1; i < len(text); i++ {
		c := text[i]
		if c == '$' {
			return text[start : i+1], true
		}
		letter := c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
		digit := '0' <= c && c <= '9'
		if !letter && !(digit && i > start+1) {
			return "", false
		}
	}
	return "", false
}

func skipDollarQuoted(text string, start int, tag string) int {
	end := strings.Index(text[start+len(tag):], tag)
	if end < 0 {
		return len(text)
	}
	return start + len(tag) + end + len(tag)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// runStatements executes each statement in its own implicit transaction.
// There is deliberately no surrounding transaction: a failed statement
// aborts the run, but everything executed before it stays committed.
// Returns the number of statements that ran successfully.
func runStatements(ctx context.Context, db execer, stmts []string) (int, error) {
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return i, ScriptError.Wrap(err, "statement %d of %d failed", i+1, len(stmts))
		}
	}
	return len(stmts), nil
}
