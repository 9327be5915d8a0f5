package auth

import (
	"github.com/vovakirdan/pulsewire-server/internal/utils"
)

// Service is the identity provider the transport consults. It validates
// bearer tokens into presence identities; the core treats the identity as an
// opaque, already-validated string.
type Service struct {
	cfg *JWTConfig
}

// NewService creates an identity provider over the given JWT configuration.
func NewService(cfg *JWTConfig) *Service {
	return &Service{cfg: cfg}
}

// Resolve maps a bearer token to a presence identity and display name. An
// empty token yields a throwaway guest identity, so anonymous connections
// can still appear in presence.
func (s *Service) Resolve(token string) (identity, displayName string, err error) {
	if token == "" {
		guest := utils.NewGuestIdentity()
		return guest, guest, nil
	}
	claims, err := ValidateToken(s.cfg, token)
	if err != nil {
		return "", "", err
	}
	name := claims.DisplayName
	if name == "" {
		name = claims.Identity
	}
	return claims.Identity, name, nil
}

// Mint issues a token for the given identity. Exposed for dev tooling and
// tests; production deployments typically mint tokens in an external auth
// service sharing the secret.
func (s *Service) Mint(identity, displayName string) (string, error) {
	return GenerateToken(s.cfg, identity, displayName)
}
