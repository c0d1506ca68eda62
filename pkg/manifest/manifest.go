package manifest

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Config is the top-level gateway manifest.
type Config struct {
	// Issuer is the OIDC issuer base URL; the JWKS URI is derived from it.
	Issuer string `toml:"issuer"`
	// ClientID is the expected token audience and the client identifier
	// sent on refresh-grant exchanges.
	ClientID string `toml:"client_id"`
	// TokenEndpoint overrides the refresh-exchange URL. Empty derives
	// "{issuer}/oauth2/token".
	TokenEndpoint string `toml:"token_endpoint"`

	// Upstream is the protected application origin every admitted
	// request is forwarded to.
	Upstream string `toml:"upstream"`
	// FormServer optionally serves the login/signup pages under the
	// login surface prefix. Empty means the gateway only redirects.
	FormServer string `toml:"form_server"`

	// LoginPath is the redirect target on denial.
	LoginPath string `toml:"login_path"`
	// Bypass lists paths admitted without any cookie inspection.
	// Exact paths or trailing "/*" prefixes.
	Bypass []string `toml:"bypass"`

	Listen string `toml:"listen"`
}

const (
	defaultLoginPath = "/auth/login"
	loginPrefix      = "/auth/*"
)

// Normalize trims fields and fills defaults. Call before Validate.
func (c *Config) Normalize() {
	c.Issuer = strings.TrimRight(strings.TrimSpace(c.Issuer), "/")
	c.ClientID = strings.TrimSpace(c.ClientID)
	c.TokenEndpoint = strings.TrimSpace(c.TokenEndpoint)
	c.Upstream = strings.TrimSpace(c.Upstream)
	c.FormServer = strings.TrimSpace(c.FormServer)
	c.LoginPath = strings.TrimSpace(c.LoginPath)

	if c.LoginPath == "" {
		c.LoginPath = defaultLoginPath
	}
	if c.TokenEndpoint == "" && c.Issuer != "" {
		c.TokenEndpoint = c.Issuer + "/oauth2/token"
	}

	// The login surface, heartbeat and metrics scrape must stay reachable
	// for unauthenticated clients.
	c.Bypass = appendMissing(c.Bypass, loginPrefix, "/ping", "/metrics")
}

// Validate reports the first missing or malformed required field.
// A non-nil error is a fatal startup condition.
func (c *Config) Validate() error {
	if c.Issuer == "" {
		return errors.New("manifest: issuer is required")
	}
	if err := checkURL("issuer", c.Issuer); err != nil {
		return err
	}
	if c.ClientID == "" {
		return errors.New("manifest: client_id is required")
	}
	if c.Upstream == "" {
		return errors.New("manifest: upstream is required")
	}
	if err := checkURL("upstream", c.Upstream); err != nil {
		return err
	}
	if c.FormServer != "" {
		if err := checkURL("form_server", c.FormServer); err != nil {
			return err
		}
	}
	if err := checkURL("token_endpoint", c.TokenEndpoint); err != nil {
		return err
	}
	if !strings.HasPrefix(c.LoginPath, "/") {
		return fmt.Errorf("manifest: login_path %q must be absolute", c.LoginPath)
	}
	return nil
}

// JWKSURL returns the well-known key-set URI for the configured issuer.
func (c *Config) JWKSURL() string {
	return c.Issuer + "/.well-known/jwks.json"
}

func checkURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("manifest: %s %q is not an absolute URL", field, raw)
	}
	return nil
}

func appendMissing(list []string, extra ...string) []string {
	for _, e := range extra {
		found := false
		for _, p := range list {
			if p == e {
				found = true
				break
			}
		}
		if !found {
			list = append(list, e)
		}
	}
	return list
}
