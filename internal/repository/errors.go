// Package repository holds the MySQL data access layer.  The sentinel
// errors below let the service layer tell "nothing there" and "someone
// else got there first" apart from infrastructure failures.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a looked up row does not exist.  Handlers
// translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an update cannot proceed because of
// existing dependent records, for example removing a table that still has
// upcoming bookings.  Handlers translate it into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when a unique key (section name, table label,
// staff email) is already taken.
var ErrDuplicate = errors.New("duplicate")

// isDuplicateKey reports whether err is MySQL error 1062.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
