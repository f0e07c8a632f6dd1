package store

import "strings"

// DetectDSNType classifies a store DSN as "postgres" or "sqlite3" using
// an inline postgres://.../host= check.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite3"
}
