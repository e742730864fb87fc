package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

type contextKey string

const SessionIDKey contextKey = "sessionID"

// TokenFromRequest reads a bearer token from the Authorization header, falling back to the
// token query parameter that browser websocket clients use.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// ControllerOnly rejects requests without a valid controller token. When the route has a
// sessionId variable, the token must control that session.
func (s *Service) ControllerOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing controller token"})
			return
		}

		sessionID, err := s.Validate(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		if want, ok := mux.Vars(r)["sessionId"]; ok && want != sessionID {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "token does not control this session"})
			return
		}

		ctx := context.WithValue(r.Context(), SessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func SessionIDFromContext(ctx context.Context) string {
	sessionID, _ := ctx.Value(SessionIDKey).(string)
	return sessionID
}
