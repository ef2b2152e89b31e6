// Package application contains use-case orchestration services.
package application

import "sync/atomic"

// TokenManager holds the process-wide credential state: the token the
// environment supplied at startup and a runtime flag gating its use. The
// flag lets an operator stop using an available token without removing it
// from the environment. A single atomic boolean is enough; concurrent
// enable/disable calls only affect which valid state is observed next.
type TokenManager struct {
	envToken string
	enabled  atomic.Bool
}

// NewTokenManager creates a TokenManager. The token is enabled initially
// if and only if the environment supplied one.
func NewTokenManager(envToken string) *TokenManager {
	m := &TokenManager{envToken: envToken}
	m.enabled.Store(envToken != "")
	return m
}

// HasEnvToken reports whether an environment token exists, independent of
// whether it is currently enabled.
func (m *TokenManager) HasEnvToken() bool {
	return m.envToken != ""
}

// IsEnabled reports whether the environment token is currently in use.
func (m *TokenManager) IsEnabled() bool {
	return m.enabled.Load()
}

// Enable turns the environment token on. It reports false when no
// environment token exists, in which case state remains disabled.
func (m *TokenManager) Enable() bool {
	if m.envToken == "" {
		return false
	}
	m.enabled.Store(true)
	return true
}

// Disable turns the environment token off. Always succeeds; idempotent.
func (m *TokenManager) Disable() {
	m.enabled.Store(false)
}

// Token returns the environment token when enabled, and the empty string
// otherwise.
func (m *TokenManager) Token() string {
	if !m.enabled.Load() {
		return ""
	}
	return m.envToken
}
