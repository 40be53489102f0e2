// Package migrations embeds the SQL schema for every supported driver.
package migrations

import (
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

// Source returns the embedded migrations for driver ("sqlite" or "postgres").
func Source(driver string) (source.Driver, error) {
	switch driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}

	src, err := iofs.New(FS, driver)
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations %s: %w", driver, err)
	}
	return src, nil
}
