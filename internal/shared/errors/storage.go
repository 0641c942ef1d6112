package errors

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQL error numbers for contention failures that are expected to resolve
// on retry.
const (
	mysqlErrLockDeadlock    = 1213
	mysqlErrLockWaitTimeout = 1205
)

// serializationSQLState is the standard SQLSTATE for serialization failures.
const serializationSQLState = "40001"

// IsSerializationFailure reports whether err is a transient storage
// contention failure (deadlock, lock wait timeout, serialization conflict)
// worth retrying.
//
// Classification prefers the structured driver error; the message inspection
// fallback is a deliberately loose contract kept for errors that arrive
// wrapped or stringified by intermediate layers.
func IsSerializationFailure(err error) bool {
	if err == nil {
		return false
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlErrLockDeadlock, mysqlErrLockWaitTimeout:
			return true
		}
		if string(mysqlErr.SQLState[:]) == serializationSQLState {
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, serializationSQLState) || strings.Contains(msg, "deadlock")
}
