package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mwarner/repodash/internal/application"
)

func TestTokenManager_EnabledWhenEnvTokenPresent(t *testing.T) {
	m := application.NewTokenManager("ghp_secret")

	assert.True(t, m.HasEnvToken())
	assert.True(t, m.IsEnabled())
	assert.Equal(t, "ghp_secret", m.Token())
}

func TestTokenManager_DisabledWhenEnvTokenAbsent(t *testing.T) {
	m := application.NewTokenManager("")

	assert.False(t, m.HasEnvToken())
	assert.False(t, m.IsEnabled())
	assert.Empty(t, m.Token())
}

func TestTokenManager_EnableWithoutEnvTokenIsNoOp(t *testing.T) {
	m := application.NewTokenManager("")

	ok := m.Enable()

	assert.False(t, ok)
	assert.False(t, m.IsEnabled())
	assert.Empty(t, m.Token())
}

func TestTokenManager_DisableThenEnable(t *testing.T) {
	m := application.NewTokenManager("ghp_secret")

	m.Disable()
	assert.False(t, m.IsEnabled())
	assert.Empty(t, m.Token(), "disabled manager must not hand out the token")
	assert.True(t, m.HasEnvToken(), "presence is independent of enablement")

	ok := m.Enable()
	assert.True(t, ok)
	assert.True(t, m.IsEnabled())
	assert.Equal(t, "ghp_secret", m.Token())
}

func TestTokenManager_DisableIsIdempotent(t *testing.T) {
	m := application.NewTokenManager("ghp_secret")

	m.Disable()
	m.Disable()

	assert.False(t, m.IsEnabled())
	assert.Empty(t, m.Token())
}
