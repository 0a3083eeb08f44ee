// Package migrations embeds the SQL schema so the server and integration
// tests apply it through goose without a filesystem path at runtime.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
