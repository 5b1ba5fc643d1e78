// Package migrations embebe los scripts SQL del esquema. golang-migrate los lee con el driver iofs.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Version última versión del esquema.
const Version = 1
