// Package repository holds the MySQL data access for users, tours and
// reviews, plus the sentinel errors the service layer switches on.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when no active row matches a lookup.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a user insert or update collides with an
// existing email.
var ErrEmailExists = errors.New("email already exists")

// ErrDuplicate is returned for any other unique-key collision, for example a
// second review of the same tour by the same user.
var ErrDuplicate = errors.New("duplicate value")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// IsDuplicate reports whether err is a MySQL unique-key violation.
func IsDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// notFound maps sql.ErrNoRows onto ErrNotFound and passes everything else through.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
