package app

import (
	"strings"

	"github.com/charlesng35/huddle/internal/database"
)

// DatabaseOpenConfig converts DatabaseConfig into the options accepted by database.Open. Only
// the host block matching the selected driver is used.
func (c DatabaseConfig) DatabaseOpenConfig() database.Config {
	driver := strings.ToLower(strings.TrimSpace(c.Driver))
	out := database.Config{
		Driver:          driver,
		Path:            c.Path,
		DSN:             strings.TrimSpace(c.DSN),
		MaxOpenConns:    c.Pool.MaxOpenConns,
		MaxIdleConns:    c.Pool.MaxIdleConns,
		ConnMaxLifetime: c.Pool.ConnMaxLifetime,
	}

	if block, ok := c.serverBlock(driver); ok {
		out.Host = block.Host
		out.Port = block.Port
		out.User = block.Username
		out.Password = block.Password
		out.Name = block.Database
		out.Options = block.Options
	}
	return out
}

func (c DatabaseConfig) serverBlock(driver string) (DBAuthConfig, bool) {
	switch driver {
	case "postgres", "postgresql":
		return c.Postgres, true
	case "mysql", "mariadb":
		return c.MySQL, true
	}
	return DBAuthConfig{}, false
}
