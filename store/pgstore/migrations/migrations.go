// Package migrations embeds the goose SQL migrations for pgstore.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
