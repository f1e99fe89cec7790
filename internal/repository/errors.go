package repository

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/lib/pq"
)

var (
	// ErrNotFound marks a lookup that matched no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateURL marks an insert that lost the website_url
	// uniqueness race.
	ErrDuplicateURL = errors.New("website url already exists")
	// ErrUnavailable marks a store that cannot be reached at all. The
	// pipeline treats it as job-fatal rather than a per-record failure.
	ErrUnavailable = errors.New("store unavailable")
)

// pq class 08 is connection_exception.
const pqConnectionClass = "08"

// classify wraps connectivity failures in ErrUnavailable so callers can
// distinguish "store down" from "bad row".
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return errors.Join(ErrUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return errors.Join(ErrUnavailable, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == pqConnectionClass {
		return errors.Join(ErrUnavailable, err)
	}

	return err
}

// isUniqueViolation reports a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
