// Package migrations embeds the goose SQL migrations for the local store.
// Schema changes are additive: a version bump must never require wiping
// already-persisted data.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
