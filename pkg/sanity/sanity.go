// SPDX-License-Identifier: Apache-2.0

// Package sanity validates identifiers and paths before they reach the
// filesystem or the database.
package sanity

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joomcode/errorx"
)

var (
	ErrInvalidFilename = errorx.IllegalArgument.New("invalid filename")
)

var (
	// shellMetachars contains shell metacharacters that are always rejected in paths
	shellMetachars = regexp.MustCompile("[;&|$\x60<>(){}[\\]*?~]")

	// validPathChars allows alphanumeric, forward slash, dash, underscore, dot
	validPathChars = regexp.MustCompile(`^[a-zA-Z0-9/_.\-]+$`)

	// validIdentifier matches unquoted SQL identifiers: a lowercase letter or
	// underscore followed by lowercase letters, digits or underscores
	validIdentifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

	// validUsername allows alphanumeric, underscore and dash
	validUsername = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)
)

// maxIdentifierLen is NAMEDATALEN-1, the server-side identifier limit.
const maxIdentifierLen = 63

// Alphanumeric ensures the input string to be ascii alphanumeric
func Alphanumeric(s string) string {
	sb := []byte(s)
	j := 0
	for _, b := range sb {
		if ('a' <= b && b <= 'z') ||
			('A' <= b && b <= 'Z') ||
			('0' <= b && b <= '9') {
			sb[j] = b
			j++
		}
	}
	return string(sb[:j])
}

// Filename sanitizes the input string to be a safe filename.
// It only allows alphanumeric characters, underscore and dash.
// It returns an error if the filename is empty after sanitization.
func Filename(s string) (string, error) {
	sb := []byte(s)
	j := 0
	for _, b := range sb {
		if ('a' <= b && b <= 'z') ||
			('A' <= b && b <= 'Z') ||
			('0' <= b && b <= '9') ||
			b == '_' ||
			b == '-' {
			sb[j] = b
			j++
		}
	}

	if j == 0 {
		return "", ErrInvalidFilename
	}

	return string(sb[:j]), nil
}

// Identifier validates a role or database name destined for DDL statements.
// Only unquoted-safe names are accepted: a lowercase letter or underscore
// followed by lowercase letters, digits or underscores, at most 63 bytes.
// The name is returned unchanged on success; nothing is stripped, since a
// silently altered name would provision the wrong object.
func Identifier(name string) (string, error) {
	if name == "" {
		return "", errorx.IllegalArgument.New("identifier cannot be empty")
	}

	if len(name) > maxIdentifierLen {
		return "", errorx.IllegalArgument.New("identifier exceeds %d bytes: %s", maxIdentifierLen, name)
	}

	if !validIdentifier.MatchString(name) {
		return "", errorx.IllegalArgument.New("identifier contains invalid characters: %s", name)
	}

	return name, nil
}

// Username validates an application account name.
// The name is returned unchanged on success.
func Username(name string) (string, error) {
	if name == "" {
		return "", errorx.IllegalArgument.New("username cannot be empty")
	}

	if strings.Contains(name, "..") {
		return "", errorx.IllegalArgument.New("username contains path traversal sequences: %s", name)
	}

	if shellMetachars.MatchString(name) {
		return "", errorx.IllegalArgument.New("username contains shell metacharacters: %s", name)
	}

	if !validUsername.MatchString(name) {
		return "", errorx.IllegalArgument.New("username contains invalid characters: %s", name)
	}

	return name, nil
}

// SanitizePath validates and sanitizes the given path.
//
// It rejects paths containing shell metacharacters, rejects ".." segments,
// requires the input path to be absolute, and normalizes the result with
// filepath.Clean. The returned path may therefore differ from the input.
func SanitizePath(path string) (string, error) {
	if path == "" {
		return "", errorx.IllegalArgument.New("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		return "", errorx.IllegalArgument.New("path must be absolute: %s", path)
	}

	// traversal check runs before cleaning so "a/../b" style inputs are
	// rejected rather than silently rewritten
	for _, segment := range strings.Split(path, "/") {
		if segment == ".." {
			return "", errorx.IllegalArgument.New("path cannot contain '..' segments: %s", path)
		}
	}

	if shellMetachars.MatchString(path) {
		return "", errorx.IllegalArgument.New("path contains shell metacharacters: %s", path)
	}

	if !validPathChars.MatchString(path) {
		return "", errorx.IllegalArgument.New("path contains invalid characters: %s", path)
	}

	return filepath.Clean(path), nil
}
