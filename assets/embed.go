// Package assets embeds the SQL migrations applied at startup.
package assets

import "embed"

// Migrations holds sql/*.sql, applied in lexical order.
//
//go:embed sql/*.sql
var Migrations embed.FS
