package database

import "embed"

// EmbeddedMigrations, migrations/*.sql dosyaları. Embedded() ile alt dizine erişilir.
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS
