// SPDX-License-Identifier: Apache-2.0

package users

import (
	"bufio"
	"context"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/joomcode/errorx"
	"github.com/rs/zerolog"
	"github.com/automa-saga/logx"
)

// Section markers in the legacy credential file.
const (
	usersMarker = "USERS"
	groupMarker = "GROUP"
)

// parserState tracks which section of the legacy file the scanner is in.
type parserState int

const (
	stateNone parserState = iota
	stateInUsers
	stateInGroup
)

// Marker-shaped lines other than the known section markers start unrelated
// content and end the current section.
var markerPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// ImportStats summarizes one legacy import run.
type ImportStats struct {
	Imported int `json:"imported" yaml:"imported"`
	Elevated int `json:"elevated" yaml:"elevated"`
	Skipped  int `json:"skipped" yaml:"skipped"`
}

// Importer migrates the legacy flat-file credential store into the users
// table. The file has a general-user section listing username:password
// pairs and an administrator section listing bare usernames; imported users
// get the baseline role set, administrators are elevated to the full set.
//
// The import runs exactly once, when upgrading from a release that still
// used the flat file. Lines that do not match the expected shape are
// skipped rather than failing the run; the format is bounded and legacy,
// so a permissive read is worth more than a strict one.
type Importer struct {
	store *Store
	log   *zerolog.Logger
}

func NewImporter(store *Store) *Importer {
	return &Importer{
		store: store,
		log:   logx.As(),
	}
}

// ImportFile reads the legacy credential file at path and applies it to
// the users table.
func (imp *Importer) ImportFile(ctx context.Context, path string) (*ImportStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errorx.DataUnavailable.Wrap(err, "failed to open legacy credential file %s", path)
	}
	defer func() { _ = f.Close() }()

	stats, err := imp.importFrom(ctx, f)
	if err != nil {
		return stats, err
	}

	imp.log.Info().
		Str("path", path).
		Int("imported", stats.Imported).
		Int("elevated", stats.Elevated).
		Int("skipped", stats.Skipped).
		Msg("Imported legacy credential file")
	return stats, nil
}

func (imp *Importer) importFrom(ctx context.Context, r io.Reader) (*ImportStats, error) {
	stats := &ImportStats{}
	state := stateNone

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == usersMarker:
			state = stateInUsers
			continue
		case line == groupMarker:
			state = stateInGroup
			continue
		case markerPattern.MatchString(line):
			// Start of unrelated content.
			state = stateNone
			continue
		}

		switch state {
		case stateInUsers:
			if err := imp.importUserLine(ctx, line, stats); err != nil {
				return stats, err
			}
		case stateInGroup:
			if err := imp.elevateLine(ctx, line, stats); err != nil {
				return stats, err
			}
		default:
			stats.Skipped++
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, errorx.DataUnavailable.Wrap(err, "failed to read legacy credential file")
	}

	return stats, nil
}

// importUserLine handles one username:password line from the general-user
// section. Quote and comma characters are stripped before splitting;
// fields past the password are ignored.
func (imp *Importer) importUserLine(ctx context.Context, line string, stats *ImportStats) error {
	fields := strings.Split(stripQuoting(line), ":")
	if len(fields) < 2 {
		imp.log.Debug().Str("line", line).Msg("Skipping malformed legacy user line")
		stats.Skipped++
		return nil
	}

	username := strings.TrimSpace(fields[0])
	password := strings.TrimSpace(fields[1])
	if username == "" || password == "" {
		imp.log.Debug().Str("line", line).Msg("Skipping legacy user line with empty username or password")
		stats.Skipped++
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	err = imp.store.Upsert(ctx, User{
		Username:     username,
		PasswordHash: hash,
		Roles:        BaselineRoles(),
		Enabled:      true,
	})
	if err != nil {
		return err
	}

	stats.Imported++
	return nil
}

// elevateLine handles one bare username from the administrator section,
// raising that user's role set to the full administrative set and leaving
// every other attribute untouched.
func (imp *Importer) elevateLine(ctx context.Context, line string, stats *ImportStats) error {
	username := strings.TrimSpace(stripQuoting(line))
	if username == "" || strings.Contains(username, ":") {
		imp.log.Debug().Str("line", line).Msg("Skipping malformed legacy administrator line")
		stats.Skipped++
		return nil
	}

	changed, err := imp.store.SetRoles(ctx, username, AdministratorRoles())
	if err != nil {
		return err
	}
	if !changed {
		imp.log.Debug().Str("username", username).Msg("Administrator not present in users table, skipping elevation")
		stats.Skipped++
		return nil
	}

	stats.Elevated++
	return nil
}

func stripQuoting(line string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '\'', ',':
			return -1
		default:
			return r
		}
	}, line)
}
