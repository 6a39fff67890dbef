package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prxmesh/prxcore/pkg/config"
)

func TestDefaultsWhenUnset(t *testing.T) {
	c := config.New()
	assert.Equal(t, "fallback", c.GetString(config.KeyProxyHost, "fallback"))
	assert.Equal(t, 3600, c.GetInt(config.KeyTokenTTL, 3600))
	assert.False(t, c.GetBool(config.KeyPolicyImport, false))
}

func TestSetOverridesDefault(t *testing.T) {
	c := config.New()
	c.SetInt(config.KeyTokenTTL, 7200)
	assert.Equal(t, 7200, c.GetInt(config.KeyTokenTTL, 3600))
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("PRXCORE_TOKEN_TTL", "120")
	c := config.New()
	assert.Equal(t, 120, c.GetInt(config.KeyTokenTTL, 3600))
}
