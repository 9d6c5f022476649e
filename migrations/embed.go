// Package migrations embeds the numbered SQL schema files. The same files
// serve SQLite and PostgreSQL; timestamps are stored as RFC 3339 text.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
