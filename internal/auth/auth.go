// Package auth is the dashboard authorization capability: it answers "does
// this secret match" and turns a successful match into a session-scoped
// token. The funnel core only depends on the boolean answer.
package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	httperr "github.com/quizlab-dev/quizfunnel/internal/core/errors"
)

// CookieName carries the dashboard session token. Session-scoped: no MaxAge,
// so the browser drops it when the browsing session ends.
const CookieName = "dashboard_session"

const issuer = "quizfunnel"

// Capability verifies the dashboard secret and manages session tokens.
type Capability struct {
	secretHash []byte
	jwtSecret  []byte
	ttl        time.Duration

	nowFn func() time.Time
}

// Claims is the session token payload.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// New hashes the configured secret at startup so the plaintext never sticks
// around in memory longer than configuration loading.
func New(secret, signingKey string, ttl time.Duration) (*Capability, error) {
	if secret == "" {
		return nil, fmt.Errorf("dashboard secret must not be empty")
	}
	if signingKey == "" {
		return nil, fmt.Errorf("token signing key must not be empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be > 0")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash dashboard secret: %w", err)
	}

	return &Capability{
		secretHash: hash,
		jwtSecret:  []byte(signingKey),
		ttl:        ttl,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

// Verify reports whether the given secret matches.
func (c *Capability) Verify(secret string) bool {
	return bcrypt.CompareHashAndPassword(c.secretHash, []byte(secret)) == nil
}

// IssueToken creates a signed session token for a verified caller.
func (c *Capability) IssueToken() (string, error) {
	now := c.nowFn()
	claims := &Claims{
		Scope: "dashboard",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a session token.
func (c *Capability) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.jwtSecret, nil
	}, jwt.WithTimeFunc(c.nowFn))
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	if !token.Valid || claims.Scope != "dashboard" {
		return nil, fmt.Errorf("session token is not valid for the dashboard")
	}
	return claims, nil
}

// Middleware guards dashboard routes: a valid session cookie passes, anything
// else gets 401 without leaking why.
func (c *Capability) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		cookie, err := ctx.Cookie(CookieName)
		if err != nil {
			abortUnauthorized(ctx)
			return
		}
		if _, err := c.ValidateToken(cookie); err != nil {
			abortUnauthorized(ctx)
			return
		}
		ctx.Next()
	}
}

func abortUnauthorized(ctx *gin.Context) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, httperr.ErrorResponse{
		ErrorType: httperr.HttpUnauthorizedError,
		Message:   "Dashboard authorization required",
	})
}
