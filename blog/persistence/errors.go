package persistence

import (
	"errors"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// isConstraintError reports whether err is the SQLite constraint failure
// identified by the extended result code.
func isConstraintError(err error, code int) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code() == code {
		return true
	}

	// Drivers built without extended result codes only report the primary one.
	if se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return false
	}
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return strings.Contains(se.Error(), "UNIQUE")
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return strings.Contains(se.Error(), "FOREIGN KEY")
	}
	return false
}

func isUniqueViolation(err error) bool {
	return isConstraintError(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE)
}

func isForeignKeyViolation(err error) bool {
	return isConstraintError(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY)
}

func utcNow() time.Time {
	return time.Now().UTC()
}
