package migrations

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var Files embed.FS

// GetFS returns the migrations for a database driver
func GetFS(driver string) (fs.FS, error) {
	switch driver {
	case "sqlite":
		return fs.Sub(Files, "sqlite")
	case "postgres", "pgx":
		return fs.Sub(Files, "postgres")
	default:
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}
}
