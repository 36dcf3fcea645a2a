// Package postgres embebe las migraciones SQL del credential store.
package postgres

import "embed"

// FS contiene los archivos NNNN_name_up.sql / NNNN_name_down.sql.
//
//go:embed *.sql
var FS embed.FS
