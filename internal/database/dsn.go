package database

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
)

// server holds the host parameters shared by the Postgres and MySQL builders.
type server struct {
	host string
	port int
}

func resolveServer(cfg Config, defaultHost string, defaultPort int) server {
	s := server{host: strings.TrimSpace(cfg.Host), port: cfg.Port}
	if s.host == "" {
		s.host = defaultHost
	}
	if s.port <= 0 {
		s.port = defaultPort
	}
	return s
}

// mergeOptions overlays overrides on defaults and returns key=value pairs sorted by key so the
// DSN is stable.
func mergeOptions(defaults, overrides map[string]string) []string {
	merged := make(map[string]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+merged[k])
	}
	return pairs
}

func requireCredentials(driver string, cfg Config) error {
	if cfg.User == "" || cfg.Name == "" {
		return fmt.Errorf("%s configuration requires user and database name", driver)
	}
	return nil
}

// buildPostgresDSN renders a libpq keyword/value DSN. Sessions run in UTC so date boundaries
// match the application clock.
func buildPostgresDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if err := requireCredentials("postgres", cfg); err != nil {
		return "", err
	}

	s := resolveServer(cfg, "localhost", 5432)
	params := []string{
		"host=" + s.host,
		"port=" + strconv.Itoa(s.port),
		"user=" + cfg.User,
		"dbname=" + cfg.Name,
	}
	if cfg.Password != "" {
		params = append(params, "password="+cfg.Password)
	}
	params = append(params, mergeOptions(map[string]string{
		"sslmode":  "disable",
		"TimeZone": "UTC",
	}, cfg.Options)...)

	return strings.Join(params, " "), nil
}

// buildMySQLDSN renders a go-sql-driver DSN with parseTime enabled and UTC locations.
func buildMySQLDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if err := requireCredentials("mysql", cfg); err != nil {
		return "", err
	}
	if strings.ContainsAny(cfg.Name, "/?") {
		return "", errors.New("mysql database name must not contain '/' or '?'")
	}

	s := resolveServer(cfg, "127.0.0.1", 3306)
	user := cfg.User
	if cfg.Password != "" {
		user += ":" + cfg.Password
	}
	opts := mergeOptions(map[string]string{
		"charset":   "utf8mb4",
		"parseTime": "true",
		"loc":       "UTC",
	}, cfg.Options)

	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	return fmt.Sprintf("%s@tcp(%s)/%s?%s", user, addr, cfg.Name, strings.Join(opts, "&")), nil
}
