package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Issuer:   "https://idp.example.test/pool",
		ClientID: "client-123",
		Upstream: "http://127.0.0.1:1880",
	}
}

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Issuer = " https://idp.example.test/pool/ "

	cfg.Normalize()

	assert.Equal(t, "https://idp.example.test/pool", cfg.Issuer)
	assert.Equal(t, "/auth/login", cfg.LoginPath)
	assert.Equal(t, "https://idp.example.test/pool/oauth2/token", cfg.TokenEndpoint)
	assert.Contains(t, cfg.Bypass, "/auth/*")
	assert.Contains(t, cfg.Bypass, "/ping")
	assert.Contains(t, cfg.Bypass, "/metrics")
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.TokenEndpoint = "https://login.example.test/oauth2/token"
	cfg.LoginPath = "/login"
	cfg.Bypass = []string{"/assets/*", "/ping"}

	cfg.Normalize()

	assert.Equal(t, "https://login.example.test/oauth2/token", cfg.TokenEndpoint)
	assert.Equal(t, "/login", cfg.LoginPath)
	assert.Contains(t, cfg.Bypass, "/assets/*")
	// no duplicate /ping
	count := 0
	for _, p := range cfg.Bypass {
		if p == "/ping" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestValidateRequiredFields(t *testing.T) {
	t.Parallel()

	for name, mutate := range map[string]func(*Config){
		"issuer":    func(c *Config) { c.Issuer = "" },
		"client_id": func(c *Config) { c.ClientID = "" },
		"upstream":  func(c *Config) { c.Upstream = "" },
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			mutate(&cfg)
			cfg.Normalize()
			require.Error(t, cfg.Validate())
		})
	}
}

func TestValidateRejectsRelativeURLs(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Upstream = "localhost:1880"
	cfg.Normalize()
	require.Error(t, cfg.Validate())
}

func TestValidateAccepts(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Normalize()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://idp.example.test/pool/.well-known/jwks.json", cfg.JWKSURL())
}
