package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"
	"github.com/riskibarqy/waiver-wire/internal/usecase"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// storeErr wraps repository failures, marking connectivity problems so
// callers can tell a down database from a bad statement.
func storeErr(op string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%w: %s: %v", usecase.ErrDependencyUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08 is connection exceptions, 57P covers server shutdowns.
		code := string(pqErr.Code)
		return strings.HasPrefix(code, "08") || strings.HasPrefix(code, "57P")
	}

	return false
}
