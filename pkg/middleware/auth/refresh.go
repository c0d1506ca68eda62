package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/joeydtaylor/authgate/pkg/middleware/metrics"
)

// ErrRefreshRejected means the issuer declined the refresh grant.
// Transport faults are reported as plain errors; both end on the same
// fallback path and differ only in the log line.
var ErrRefreshRejected = errors.New("refresh rejected")

// TokenPair is the result of a successful refresh-grant exchange.
type TokenPair struct {
	IDToken     string
	AccessToken string
}

type tokenResponse struct {
	IDToken     string `json:"id_token"`
	AccessToken string `json:"access_token"`
}

// refreshExchange trades the opaque refresh token for a new short-lived
// pair. Exactly one attempt per gating decision; the browser retries by
// re-requesting.
func (m *Middleware) refreshExchange(ctx context.Context, refreshToken string) (TokenPair, error) {
	ctx, cancel := context.WithTimeout(ctx, m.exchangeTimeout)
	defer cancel()

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", m.audience)
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return TokenPair{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	res, err := m.httpClient.Do(req)
	if err != nil {
		metrics.ObserveTokenRefresh("transport_error")
		return TokenPair{}, fmt.Errorf("token endpoint: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		metrics.ObserveTokenRefresh("rejected")
		return TokenPair{}, fmt.Errorf("%w: status %d", ErrRefreshRejected, res.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(res.Body).Decode(&tr); err != nil {
		metrics.ObserveTokenRefresh("rejected")
		return TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshRejected, err)
	}
	if tr.IDToken == "" || tr.AccessToken == "" {
		metrics.ObserveTokenRefresh("rejected")
		return TokenPair{}, fmt.Errorf("%w: incomplete grant result", ErrRefreshRejected)
	}

	metrics.ObserveTokenRefresh("ok")
	return TokenPair{IDToken: tr.IDToken, AccessToken: tr.AccessToken}, nil
}
