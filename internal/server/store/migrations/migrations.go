// Package migrations embeds the goose migrations of the SQL user stores.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// SQLite returns the migrations for the SQLite store.
func SQLite() fs.FS {
	return sub("sqlite")
}

// Postgres returns the migrations for the Postgres store.
func Postgres() fs.FS {
	return sub("postgres")
}

func sub(dir string) fs.FS {
	f, err := fs.Sub(files, dir)
	if err != nil {
		panic(err)
	}
	return f
}
