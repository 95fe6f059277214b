package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"

	"github.com/linesmerrill/forum-api/models"
	"github.com/linesmerrill/forum-api/services"
)

// tokenCacheTTL bounds how long a verified token is trusted without parsing it again
const tokenCacheTTL = 5 * time.Minute

// Claims are the JWT claims issued by the identity provider
type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ProfileEnsurer creates the forum profile of a user seen for the first time
type ProfileEnsurer interface {
	EnsureUser(ctx context.Context, actor services.Actor) (*models.User, error)
}

// MiddlewareAuth authenticates requests with bearer JWTs
type MiddlewareAuth struct {
	secret        []byte
	profiles      ProfileEnsurer
	authenticator auth.Authenticator
}

// NewMiddlewareAuth sets up go-guardian with a cached bearer strategy that
// verifies HS256 tokens signed with secret. profiles may be nil.
func NewMiddlewareAuth(secret string, profiles ProfileEnsurer) *MiddlewareAuth {
	m := &MiddlewareAuth{secret: []byte(secret), profiles: profiles}
	cache := store.NewFIFO(context.Background(), tokenCacheTTL)
	tokenStrategy := bearer.New(m.ValidateToken, cache)

	m.authenticator = auth.New()
	m.authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
	return m
}

// Middleware rejects requests without a valid token and stores the actor in
// the request context. Browsers cannot set headers on socket upgrades, so a
// token query parameter is accepted in place of the Authorization header.
func (m *MiddlewareAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			if token := r.URL.Query().Get("token"); token != "" {
				r.Header.Set("Authorization", "Bearer "+token)
			}
		}
		info, err := m.authenticator.Authenticate(r)
		if err != nil {
			zap.S().Warnw("unauthorized",
				"url", r.URL.Path,
				"error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		zap.S().Debugw("user authenticated", "userId", info.ID())
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actorFromInfo(info))))
	})
}

// RequireAdmin lets only admins through. It must run after Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok || !actor.IsAdmin() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error": "forbidden"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ValidateToken verifies a JWT and returns the user it was issued to. It only
// runs on a token cache miss.
func (m *MiddlewareAuth) ValidateToken(ctx context.Context, r *http.Request, token string) (auth.Info, error) {
	claims, err := m.ParseToken(token)
	if err != nil {
		return nil, err
	}
	role := claims.Role
	if role != models.RoleAdmin {
		role = models.RoleUser
	}
	info := auth.NewDefaultUser(claims.Name, claims.Subject, []string{role}, nil)

	if m.profiles != nil {
		if _, err := m.profiles.EnsureUser(ctx, actorFromInfo(info)); err != nil {
			return nil, fmt.Errorf("failed to load profile of %s: %w", claims.Subject, err)
		}
	}
	return info, nil
}

// ParseToken verifies the signature and expiry of an HS256 token
func (m *MiddlewareAuth) ParseToken(token string) (*Claims, error) {
	if len(m.secret) == 0 {
		return nil, errors.New("jwt secret not configured")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("invalid token: missing subject")
	}
	return claims, nil
}

// SocketSubject returns the user a socket.io handshake was authenticated as,
// reading the token from the query or the Authorization header
func (m *MiddlewareAuth) SocketSubject(header http.Header, query url.Values) (string, error) {
	token := query.Get("token")
	if token == "" {
		token = strings.TrimPrefix(header.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		return "", errors.New("missing token")
	}
	claims, err := m.ParseToken(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func actorFromInfo(info auth.Info) services.Actor {
	actor := services.Actor{UserID: info.ID(), Name: info.UserName(), Role: models.RoleUser}
	if groups := info.Groups(); len(groups) > 0 {
		actor.Role = groups[0]
	}
	return actor
}

// RequestIDMiddleware tags every request with an X-Request-ID header
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}
