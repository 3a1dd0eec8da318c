package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/erp/quotedesk/internal/infrastructure/logger"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// TokenSource supplies the bearer token for a request. An empty token with
// a nil error means the request is sent unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource
type TokenSourceFunc func(ctx context.Context) (string, error)

// Token implements TokenSource
func (f TokenSourceFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken is a fixed token, typically from configuration
type StaticToken string

// Token implements TokenSource
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// ChainTokenSource returns the first non-empty token of its sources
type ChainTokenSource []TokenSource

// Token implements TokenSource
func (c ChainTokenSource) Token(ctx context.Context) (string, error) {
	for _, src := range c {
		if src == nil {
			continue
		}
		tok, err := src.Token(ctx)
		if err != nil {
			return "", err
		}
		if tok != "" {
			return tok, nil
		}
	}
	return "", nil
}

type tokenKey struct{}

// WithToken attaches a per-call token, e.g. one forwarded from an incoming
// server request
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// ContextToken reads the token attached with WithToken
var ContextToken TokenSource = TokenSourceFunc(func(ctx context.Context) (string, error) {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok, nil
})

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// ok is false for opaque tokens or tokens without an expiry.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// authenticate sets the Authorization header. Tokens are never refreshed;
// an expired JWT is sent as is after a single warning.
func (c *Client) authenticate(ctx context.Context, req *http.Request) error {
	if c.tokens == nil {
		return nil
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}

	if exp, ok := TokenExpiry(token); ok && time.Now().After(exp) {
		c.mu.Lock()
		first := c.warnedToken != token
		c.warnedToken = token
		c.mu.Unlock()
		if first {
			logger.Bind(ctx, c.logger).Warn("Bearer token has expired; run `quotedesk login` to store a new one",
				zap.Time("expired_at", exp),
			)
		}
	}

	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}
