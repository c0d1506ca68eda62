package auth

import "net/http"

const (
	CookieIDToken      = "idToken"
	CookieAccessToken  = "accessToken"
	CookieRefreshToken = "refreshToken"

	sessionCookieMaxAge = 60 * 60           // 1 hour, seconds
	refreshCookieMaxAge = 60 * 60 * 24 * 60 // 60 days, seconds
)

// Credentials are the raw cookie values presented on a request. Absent
// cookies are empty strings; reading never fails.
type Credentials struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
}

// CookieStore computes the Set-Cookie directives for the session cookie
// set. The short-lived pair is always issued together and all three are
// always cleared together; nothing else is ever emitted.
type CookieStore struct{}

func (CookieStore) Read(r *http.Request) Credentials {
	var c Credentials
	if ck, err := r.Cookie(CookieIDToken); err == nil {
		c.IDToken = ck.Value
	}
	if ck, err := r.Cookie(CookieAccessToken); err == nil {
		c.AccessToken = ck.Value
	}
	if ck, err := r.Cookie(CookieRefreshToken); err == nil {
		c.RefreshToken = ck.Value
	}
	return c
}

// Issue sets the short-lived token pair. Secure mirrors the transport
// the request actually arrived on.
func (s CookieStore) Issue(w http.ResponseWriter, r *http.Request, idToken, accessToken string) {
	http.SetCookie(w, s.sessionCookie(r, CookieIDToken, idToken))
	http.SetCookie(w, s.sessionCookie(r, CookieAccessToken, accessToken))
}

// IssueRefresh sets the long-lived refresh cookie. Only the login surface
// ever calls this; the gating path never touches the refresh cookie on
// success.
func (s CookieStore) IssueRefresh(w http.ResponseWriter, r *http.Request, refreshToken string) {
	ck := s.sessionCookie(r, CookieRefreshToken, refreshToken)
	ck.MaxAge = refreshCookieMaxAge
	http.SetCookie(w, ck)
}

// ClearAll expires all three cookies immediately (empty value, Max-Age=0
// on the wire).
func (CookieStore) ClearAll(w http.ResponseWriter) {
	for _, name := range []string{CookieIDToken, CookieAccessToken, CookieRefreshToken} {
		http.SetCookie(w, &http.Cookie{
			Name:   name,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
	}
}

func (CookieStore) sessionCookie(r *http.Request, name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   sessionCookieMaxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
}
