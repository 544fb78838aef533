package app

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"time"
)

const (
	jwtSecretBytes         = 48
	defaultShutdownTimeout = 15 * time.Second
)

// ApplyRuntimeDefaults fills settings the server cannot start without. It returns the sorted keys
// whose values were generated or substituted so callers can warn without logging the values.
func ApplyRuntimeDefaults(cfg *Config) ([]string, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	var filled []string

	if strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		secret, err := randomHex(jwtSecretBytes)
		if err != nil {
			return nil, err
		}
		cfg.Auth.JWT.Secret = secret
		filled = append(filled, "auth.jwt.secret")
	}

	if len(cfg.Server.CORS.AllowedOrigins) == 0 {
		cfg.Server.CORS.AllowedOrigins = []string{"*"}
		filled = append(filled, "server.cors.allowed_origins")
	}

	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = defaultShutdownTimeout
	}

	if endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint); endpoint == "" {
		cfg.Monitoring.Prometheus.Endpoint = "/metrics"
	} else if !strings.HasPrefix(endpoint, "/") {
		cfg.Monitoring.Prometheus.Endpoint = "/" + endpoint
	}

	sort.Strings(filled)
	return filled, nil
}

func randomHex(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("random secret length must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
