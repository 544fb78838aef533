package app

import (
	"fmt"
	"io"
	"maps"

	"gopkg.in/yaml.v3"
)

const redacted = "[redacted]"

// Redacted returns a copy of the configuration safe to print: credentials and DSNs, which may
// embed passwords, are masked.
func (c *Config) Redacted() Config {
	out := *c
	mask(&out.Auth.JWT.Secret)
	mask(&out.Database.DSN)
	for _, block := range []*DBAuthConfig{&out.Database.Postgres, &out.Database.MySQL} {
		mask(&block.Password)
		block.Options = maps.Clone(block.Options)
		if _, ok := block.Options["password"]; ok {
			block.Options["password"] = redacted
		}
	}
	return out
}

func mask(value *string) {
	if *value != "" {
		*value = redacted
	}
}

// WriteYAML renders the redacted configuration in the config file layout.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c.Redacted()); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
