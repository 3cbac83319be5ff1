// Package migrations embeds the SQL schema migrations so the server
// binary can apply them at startup without a separate tooling step.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
