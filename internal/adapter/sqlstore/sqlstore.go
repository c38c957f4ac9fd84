// Package sqlstore implements the domain repositories on database/sql.
//
// Queries are written once for both PostgreSQL and SQLite: placeholders are
// $n, days are TEXT columns, timestamps are written as UTC time.Time and
// conflicts are resolved with INSERT ... ON CONFLICT.
package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"heartscore/internal/domain"
)

// DB wraps a *sql.DB and implements the domain repository interfaces.
type DB struct {
	sql      *sql.DB
	isUnique func(error) bool
}

// New wraps an open, migrated database. isUnique reports whether a driver
// error is a unique constraint violation.
func New(db *sql.DB, isUnique func(error) bool) *DB {
	if isUnique == nil {
		isUnique = func(error) bool { return false }
	}
	return &DB{sql: db, isUnique: isUnique}
}

var (
	_ domain.Store             = (*DB)(nil)
	_ domain.SessionRepository = (*SessionRepo)(nil)
)

// SQL returns the underlying handle.
func (d *DB) SQL() *sql.DB { return d.sql }

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func storageErr(op string, err error) error {
	return &domain.StorageError{Op: op, Err: err}
}

// timeLayouts are the text encodings drivers hand back for timestamps.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// timeCol scans a timestamp stored either natively or as text.
type timeCol struct{ dst *time.Time }

func (c timeCol) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*c.dst = v.UTC()
	case string:
		t, err := parseTime(v)
		if err != nil {
			return err
		}
		*c.dst = t.UTC()
	case []byte:
		t, err := parseTime(string(v))
		if err != nil {
			return err
		}
		*c.dst = t.UTC()
	default:
		return fmt.Errorf("cannot scan %T into time", src)
	}
	return nil
}

// nullTimeCol is timeCol for nullable columns.
type nullTimeCol struct{ dst **time.Time }

func (c nullTimeCol) Scan(src any) error {
	if src == nil {
		*c.dst = nil
		return nil
	}
	var t time.Time
	if err := (timeCol{&t}).Scan(src); err != nil {
		return err
	}
	*c.dst = &t
	return nil
}

func noRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
