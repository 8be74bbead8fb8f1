// SPDX-License-Identifier: Apache-2.0

package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"

	"github.com/meshview/provisioner/pkg/sanity"
)

const (
	upsertUserQuery = `INSERT INTO users (username, longname, email, password, roles, enabled)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (username) DO UPDATE SET
longname = EXCLUDED.longname,
email = EXCLUDED.email,
password = EXCLUDED.password,
roles = EXCLUDED.roles,
enabled = EXCLUDED.enabled`

	getUserQuery = `SELECT username, longname, email, password, roles, enabled
FROM users WHERE username = $1`

	updateRolesQuery = `UPDATE users SET roles = $1 WHERE username = $2`

	countUsersQuery = `SELECT COUNT(*) FROM users`
)

var placeholderPattern = regexp.MustCompile(`\$(\d+)`)

// RebindToQuestion rewrites PostgreSQL positional placeholders into the
// question-mark form. Only valid for queries whose placeholders appear in
// ascending order, which all queries in this package satisfy.
func RebindToQuestion(query string) string {
	return placeholderPattern.ReplaceAllString(query, "?")
}

// Store persists users in the users table of the provisioned database.
type Store struct {
	db     *sql.DB
	rebind func(string) string
}

type StoreOption func(*Store)

// WithQuestionPlaceholders adapts queries for drivers that expect ?
// placeholders instead of the PostgreSQL positional form.
func WithQuestionPlaceholders() StoreOption {
	return func(s *Store) {
		s.rebind = RebindToQuestion
	}
}

func NewStore(db *sql.DB, opts ...StoreOption) *Store {
	s := &Store{
		db:     db,
		rebind: func(query string) string { return query },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert creates the user or overwrites every mutable attribute of an
// existing record with the given values.
func (s *Store) Upsert(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, s.rebind(upsertUserQuery),
		u.Username, u.LongName, u.Email, u.PasswordHash, encodeRoles(u.Roles), u.Enabled)
	if err != nil {
		return StorageError.Wrap(err, "failed to store user %s", u.Username)
	}
	return nil
}

// Get returns the named user. Absence carries the not-found trait.
func (s *Store) Get(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(getUserQuery), username)

	var u User
	var roles string
	err := row.Scan(&u.Username, &u.LongName, &u.Email, &u.PasswordHash, &roles, &u.Enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFoundError.New("user %s does not exist", username)
	}
	if err != nil {
		return nil, StorageError.Wrap(err, "failed to read user %s", username)
	}

	u.Roles = decodeRoles(roles)
	return &u, nil
}

// SetRoles replaces the user's role set, leaving every other attribute
// untouched. Reports whether a record was actually changed.
func (s *Store) SetRoles(ctx context.Context, username string, roles []Role) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(updateRolesQuery), encodeRoles(roles), username)
	if err != nil {
		return false, StorageError.Wrap(err, "failed to update roles for user %s", username)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, StorageError.Wrap(err, "failed to update roles for user %s", username)
	}
	return affected > 0, nil
}

// Count returns the number of user records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, countUsersQuery).Scan(&count); err != nil {
		return 0, StorageError.Wrap(err, "failed to count users")
	}
	return count, nil
}

// EnsureAdministrator creates or refreshes the initial administrator
// account with a fresh password hash and the full administrative role set.
func (s *Store) EnsureAdministrator(ctx context.Context, username, password, longName, email string) error {
	validated, err := sanity.Username(username)
	if err != nil {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	return s.Upsert(ctx, User{
		Username:     validated,
		LongName:     longName,
		Email:        email,
		PasswordHash: hash,
		Roles:        AdministratorRoles(),
		Enabled:      true,
	})
}
