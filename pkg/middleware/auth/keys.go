package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/joeydtaylor/authgate/pkg/middleware/metrics"
)

// ErrKeyNotFound means the key set fetched fine but carries no key for
// the requested kid. Terminal for this verification attempt; the cache
// keeps whatever it already holds.
var ErrKeyNotFound = errors.New("signing key not found")

// resolveKey returns the RSA public key for kid, fetching the full key
// set on a cache miss. Concurrent misses for the same kid collapse into
// one fetch; a failed fetch caches nothing.
func (m *Middleware) resolveKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if k := m.cachedKey(kid); k != nil {
		return k, nil
	}

	_, err, _ := m.flight.Do(kid, func() (any, error) {
		// A winner for this kid may have landed between the miss and
		// the flight.
		if m.cachedKey(kid) != nil {
			return nil, nil
		}
		if err := m.fetchKeySet(ctx); err != nil {
			metrics.ObserveJWKSFetch("error")
			return nil, err
		}
		metrics.ObserveJWKSFetch("ok")
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("jwks fetch: %w", err)
	}

	if k := m.cachedKey(kid); k != nil {
		return k, nil
	}
	return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
}

func (m *Middleware) cachedKey(kid string) *rsa.PublicKey {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.keys[kid]
}

// fetchKeySet GETs the well-known JWKS document and populates the cache
// with every RSA signing key it contains, not just the one that caused
// the miss.
func (m *Middleware) fetchKeySet(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.jwksTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.jwksURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("key fetch %s: %s", m.jwksURL, res.Status)
	}

	var jwks struct {
		Keys []struct {
			Kty string `json:"kty"`
			Use string `json:"use"`
			Alg string `json:"alg"`
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(res.Body).Decode(&jwks); err != nil {
		return err
	}

	fresh := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for i := range jwks.Keys {
		k := &jwks.Keys[i]
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		if k.Use != "" && k.Use != "sig" {
			continue
		}
		if k.Alg != "" && !strings.EqualFold(k.Alg, "RS256") {
			continue
		}
		nBytes, err := b64url(k.N)
		if err != nil {
			return fmt.Errorf("bad jwks.n: %w", err)
		}
		eBytes, err := b64url(k.E)
		if err != nil {
			return fmt.Errorf("bad jwks.e: %w", err)
		}
		fresh[k.Kid] = &rsa.PublicKey{
			N: new(big.Int).SetBytes(nBytes),
			E: bytesToInt(eBytes),
		}
	}
	if len(fresh) == 0 {
		return errors.New("no suitable RSA key in JWKS")
	}

	// commit only a fully parsed set
	m.mu.Lock()
	for kid, key := range fresh {
		m.keys[kid] = key
	}
	m.mu.Unlock()
	return nil
}
