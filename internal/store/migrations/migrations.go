// Package migrations embeds the SQL migration files for the session keystore.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
