package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/smolfarm/skyrdle/internal/httputil"
)

type ctxKey int

const identityKey ctxKey = iota

// identity is the authenticated caller as seen by handlers.
type identity struct {
	DID    string
	Handle string
}

func identityFrom(ctx context.Context) (identity, bool) {
	id, ok := ctx.Value(identityKey).(identity)
	return id, ok
}

type sessionClaims struct {
	DID    string `json:"did"`
	Handle string `json:"handle,omitempty"`
	jwt.RegisteredClaims
}

func (s *Server) signSessionToken(did, handle string) (string, time.Time, error) {
	expires := time.Now().Add(time.Duration(s.cfg.Auth.ExpiryDays) * 24 * time.Hour)
	claims := sessionClaims{
		DID:    did,
		Handle: handle,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(s.cfg.Auth.JWTSecret))
	return signed, expires, err
}

func (s *Server) parseSessionToken(raw string) (identity, bool) {
	var claims sessionClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.Auth.JWTSecret), nil
	})
	if err != nil || !tok.Valid || claims.DID == "" {
		return identity{}, false
	}
	return identity{DID: claims.DID, Handle: claims.Handle}, true
}

// handleSession exchanges a verified OAuth identity for a session token.
// The OAuth dance itself happens client-side against the identity provider;
// this endpoint only mints the backend session once the client holds a DID.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DID    string `json:"did"`
		Handle string `json:"handle"`
	}
	if err := httputil.ReadJSON(r, &req, httputil.DefaultMaxBody); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !strings.HasPrefix(req.DID, "did:") {
		httputil.WriteError(w, http.StatusBadRequest, "a did is required")
		return
	}

	token, expires, err := s.signSessionToken(req.DID, req.Handle)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"token":     token,
		"did":       req.DID,
		"handle":    req.Handle,
		"expiresAt": expires.UTC().Format(time.RFC3339),
	})
}

// requireIdentity resolves the caller's DID from, in order: a bearer token,
// the session cookie, or an explicit did query parameter. Native clients that
// keep their own OAuth session use the query form.
func (s *Server) requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := bearerToken(r); raw != "" {
			if id, ok := s.parseSessionToken(raw); ok {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
				return
			}
			httputil.WriteError(w, http.StatusUnauthorized, "invalid session token")
			return
		}
		if c, err := r.Cookie(s.cfg.Auth.CookieName); err == nil {
			if id, ok := s.parseSessionToken(c.Value); ok {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
				return
			}
		}
		if did := r.URL.Query().Get("did"); strings.HasPrefix(did, "did:") {
			id := identity{DID: did}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
			return
		}
		httputil.WriteError(w, http.StatusUnauthorized, "authentication required")
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
