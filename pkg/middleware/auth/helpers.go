package auth

import "context"

// SessionFromContext returns the principal attached by the gate, if any.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionCtxKey).(Session)
	return s, ok
}

func (m *Middleware) GetSession(ctx context.Context) Session {
	if s, ok := ctx.Value(sessionCtxKey).(Session); ok {
		return s
	}
	return Session{}
}

func (m *Middleware) IsAuthenticated(ctx context.Context) bool {
	s, ok := ctx.Value(sessionCtxKey).(Session)
	return ok && s.Email != ""
}
