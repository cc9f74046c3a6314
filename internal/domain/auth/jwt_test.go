package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockyard/internal/core/id"
	"stockyard/internal/core/security"
)

func testService() *JWTService {
	return NewJWTService(DefaultJWTConfig("test-secret"))
}

func testActor() *security.Actor {
	return &security.Actor{
		ID:   id.New(),
		Name: "warehouse clerk",
		Capabilities: []security.Capability{
			security.CapCreateTransfer,
			security.CapSignTransfer,
		},
	}
}

func TestGenerateAndValidate_RoundTrip(t *testing.T) {
	svc := testService()
	actor := testActor()

	token, expiresAt, err := svc.GenerateAccessToken(actor)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	parsed, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor.ID, parsed.ID)
	assert.Equal(t, actor.Name, parsed.Name)
	assert.Equal(t, actor.Capabilities, parsed.Capabilities)
	assert.True(t, parsed.Can(security.CapSignTransfer))
	assert.False(t, parsed.Can(security.CapApprovePO))
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, _, err := testService().GenerateAccessToken(testActor())
	require.NoError(t, err)

	other := NewJWTService(DefaultJWTConfig("other-secret"))
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	cfg := DefaultJWTConfig("test-secret")
	cfg.Issuer = "somebody-else"
	token, _, err := NewJWTService(cfg).GenerateAccessToken(testActor())
	require.NoError(t, err)

	_, err = testService().ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	cfg := DefaultJWTConfig("test-secret")
	cfg.AccessTokenTTL = -time.Minute
	token, _, err := NewJWTService(cfg).GenerateAccessToken(testActor())
	require.NoError(t, err)

	_, err = testService().ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := testService().ValidateToken("not.a.token")
	assert.Error(t, err)
}
