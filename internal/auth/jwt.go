// Package auth verifies the identity provider's access tokens and resolves
// the calling user.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Priya8975/football-predictions/internal/domain"
)

// Claims are the access token claims. Subject holds the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// MintToken signs an HS256 access token for the user.
func MintToken(userID, email, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString([]byte(secret))
}

func ParseClaims(tokenStr, secret string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.Subject == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return c, nil
}

// ErrInvalidToken is returned when a token is present but cannot be trusted.
var ErrInvalidToken = errors.New("invalid or expired token")

// UserLookup loads the user record for a verified subject.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// Authenticator resolves the user behind a request.
type Authenticator struct {
	secret string
	users  UserLookup
}

func NewAuthenticator(secret string, users UserLookup) *Authenticator {
	return &Authenticator{secret: secret, users: users}
}

const accessTokenCookie = "access_token"

// TokenFromRequest reads the token from the Authorization header, the
// access_token cookie, or the token query parameter (WebSocket clients).
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie(accessTokenCookie); err == nil {
		return cookie.Value
	}
	return r.URL.Query().Get("token")
}

// Resolve returns the request's user, or nil when no token was sent.
// A bad token or a subject with no user record yields ErrInvalidToken.
func (a *Authenticator) Resolve(r *http.Request) (*domain.User, error) {
	tokenStr := TokenFromRequest(r)
	if tokenStr == "" {
		return nil, nil
	}

	claims, err := ParseClaims(tokenStr, a.secret)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := a.users.GetUser(r.Context(), claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}

type contextKey struct{}

// WithUser returns a context carrying the resolved user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFrom returns the user stored by WithUser, or nil.
func UserFrom(ctx context.Context) *domain.User {
	user, _ := ctx.Value(contextKey{}).(*domain.User)
	return user
}
