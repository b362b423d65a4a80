package sqlite

import (
	"database/sql"
	"time"
)

// Timestamps are stored as INTEGER unix nanoseconds in UTC.

// Nanos converts a time to its stored representation.
func Nanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

// FromNanos converts a stored value back to a UTC time.
func FromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// NullNanos converts an optional time to a nullable column value.
func NullNanos(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: Nanos(*t), Valid: true}
}

// TimePtr converts a nullable column value to an optional time.
func TimePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := FromNanos(n.Int64)
	return &t
}

// StringPtr converts a nullable text column to an optional string.
func StringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// NullString converts an optional string to a nullable column value.
func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
