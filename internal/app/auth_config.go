package app

import (
	"strings"

	"github.com/charlesng35/huddle/internal/auth"
)

// JWTServiceConfig converts AuthConfig into the verifier settings for tokens minted by the
// identity provider. Blank issuer or audience disables that claim check.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	out := auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         strings.TrimSpace(c.JWT.Issuer),
		Audience:       strings.TrimSpace(c.JWT.Audience),
		AccessTokenTTL: c.JWT.TTL,
	}
	if out.AccessTokenTTL <= 0 {
		out.AccessTokenTTL = auth.DefaultAccessTokenTTL
	}
	return out
}
