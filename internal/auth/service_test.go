package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testConfig() *JWTConfig {
	return &JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "pulsewire",
		Audience: "pulsewire-clients",
		TTL:      time.Hour,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService(testConfig())

	token, err := svc.Mint("alice", "Alice")
	require.NoError(t, err)

	identity, name, err := svc.Resolve(token)
	require.NoError(t, err)
	require.Equal(t, "alice", identity)
	require.Equal(t, "Alice", name)
}

func TestResolveEmptyTokenYieldsGuest(t *testing.T) {
	svc := NewService(testConfig())

	identity, name, err := svc.Resolve("")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(identity, "guest-"))
	require.Equal(t, identity, name)

	other, _, err := svc.Resolve("")
	require.NoError(t, err)
	require.NotEqual(t, identity, other, "guest identities must be unique")
}

func TestResolveRejectsBadToken(t *testing.T) {
	svc := NewService(testConfig())

	_, _, err := svc.Resolve("not-a-token")
	require.Error(t, err)
}

func TestResolveRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken(&JWTConfig{
		Secret:   []byte("other-secret"),
		Issuer:   "pulsewire",
		Audience: "pulsewire-clients",
		TTL:      time.Hour,
	}, "alice", "")
	require.NoError(t, err)

	_, _, err = NewService(testConfig()).Resolve(token)
	require.Error(t, err)
}

func TestResolveRejectsExpiredToken(t *testing.T) {
	cfg := testConfig()
	cfg.TTL = -time.Minute

	token, err := GenerateToken(cfg, "alice", "")
	require.NoError(t, err)

	_, _, err = NewService(testConfig()).Resolve(token)
	require.Error(t, err)
}

func TestValidateRejectsMissingIdentity(t *testing.T) {
	token, err := GenerateToken(testConfig(), "", "")
	require.NoError(t, err)

	_, err = ValidateToken(testConfig(), token)
	require.Error(t, err)
}
