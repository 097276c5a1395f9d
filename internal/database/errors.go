package database

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

const (
	errDuplicateEntry  = 1062
	errRowIsReferenced = 1451
	errRowReferenced2  = 1217
)

// IsDuplicate reports a unique index violation.
func IsDuplicate(err error) bool {
	return mysqlErrorNumber(err) == errDuplicateEntry
}

// IsReferenced reports a delete blocked by a RESTRICT foreign key.
func IsReferenced(err error) bool {
	n := mysqlErrorNumber(err)
	return n == errRowIsReferenced || n == errRowReferenced2
}

func mysqlErrorNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}
