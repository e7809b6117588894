// Package auth issues and verifies the bearer tokens that guard the API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/starford/techdocs/internal/apperr"
)

// Mode selects whether the API guard is enforced.
type Mode string

const (
	ModeJWT      Mode = "jwt"
	ModeDisabled Mode = "disabled"
)

// DefaultExpiry is the token lifetime when none is configured.
const DefaultExpiry = 24 * time.Hour

// Credentials is a configured account.
type Credentials struct {
	Username string
	Password string
	Role     string
}

// User is the identity carried by a verified token.
type User struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Anonymous is reported when the guard is disabled.
var Anonymous = User{Username: "anonymous", Role: "admin"}

// Claims is the JWT payload.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator checks credentials and signs tokens with an HMAC secret.
type Authenticator struct {
	users  map[string]Credentials
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// New builds an Authenticator. The users slice is copied.
func New(secret string, expiry time.Duration, users []Credentials) *Authenticator {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	byName := make(map[string]Credentials, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}
	return &Authenticator{
		users:  byName,
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// Login checks username and password and returns a signed token.
func (a *Authenticator) Login(username, password string) (string, User, error) {
	cred, ok := a.users[username]
	// Passwords are stored in the config file as plain text.
	if !ok || cred.Password != password {
		return "", User{}, fmt.Errorf("%w: invalid username or password", apperr.ErrUnauthorized)
	}
	user := User{Username: cred.Username, Role: cred.Role}

	now := a.now()
	claims := Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.expiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", User{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return token, user, nil
}

// Verify parses a token and returns the user it names. Expired, tampered or
// non-HS256 tokens yield ErrUnauthorized.
func (a *Authenticator) Verify(token string) (User, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return User{}, fmt.Errorf("%w: token expired", apperr.ErrUnauthorized)
		}
		return User{}, fmt.Errorf("%w: invalid token", apperr.ErrUnauthorized)
	}
	return User{Username: claims.Username, Role: claims.Role}, nil
}

type ctxKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext returns the user stored by the auth middleware.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(ctxKey{}).(User)
	return u, ok
}
