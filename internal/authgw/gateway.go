// Package authgw implements the access gateway: bearer tokens are verified
// against the issuer's published key set and the verified (issuer, subject)
// pair is mapped to an internal tenant/user identity.
package authgw

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/schradermade/hvac-ai-sub002/internal/apperr"
)

// Identity is the internal principal resolved from a verified token.
type Identity struct {
	UserID   string
	TenantID string
	Role     string
}

// IdentityStore looks up the identity mapped to a verified issuer+subject
// pair. Implementations must treat the mapping as read-only.
type IdentityStore interface {
	Lookup(ctx context.Context, issuer, subject string) (*Identity, error)
}

// Config holds the expected token parameters. LocalJWKS, when set, is a raw
// JWKS JSON document used instead of fetching JWKSURL.
type Config struct {
	JWKSURL   string
	Issuer    string
	Audience  string
	LocalJWKS string
}

const localKeySetKey = "local"

// Gateway authenticates bearer tokens and resolves internal identities.
type Gateway struct {
	cfg   Config
	cache *KeySetCache
	store IdentityStore
}

// New creates a Gateway. When cfg.LocalJWKS is set it is seeded into the
// cache immediately; a malformed local key set surfaces on Authenticate as a
// configuration error.
func New(cfg Config, cache *KeySetCache, store IdentityStore) *Gateway {
	g := &Gateway{cfg: cfg, cache: cache, store: store}
	if cfg.LocalJWKS != "" {
		_ = cache.Seed(localKeySetKey, []byte(cfg.LocalJWKS))
	}
	return g
}

// Authenticate verifies the raw bearer token and returns the mapped internal
// identity. Failure statuses are deliberate: bad or missing credentials are
// 401, a verified token with no provisioned mapping is 403, and gateway
// misconfiguration is 500.
func (g *Gateway) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if g.cfg.Audience == "" {
		return nil, apperr.Internal("auth gateway is not configured")
	}
	if token == "" {
		return nil, apperr.Unauthorized("missing bearer token")
	}

	jwks, err := g.keySet()
	if err != nil {
		return nil, apperr.Internal("auth gateway is not configured")
	}

	parsed, err := jwt.Parse(token, jwks.Keyfunc,
		jwt.WithIssuer(g.cfg.Issuer),
		jwt.WithAudience(g.cfg.Audience),
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
	)
	if err != nil || !parsed.Valid {
		return nil, apperr.Unauthorized("invalid token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperr.Unauthorized("invalid token")
	}

	issuer, _ := claims.GetIssuer()
	subject := subjectFromClaims(claims)
	if subject == "" {
		return nil, apperr.Unauthorized("invalid token")
	}

	identity, err := g.store.Lookup(ctx, issuer, subject)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, apperr.Forbidden("no identity provisioned for this subject")
	}
	return identity, nil
}

func (g *Gateway) keySet() (jwksSet, error) {
	if g.cfg.LocalJWKS != "" {
		return g.cachedSet(localKeySetKey)
	}
	if g.cfg.JWKSURL == "" {
		return nil, apperr.Internal("auth gateway is not configured")
	}
	return g.cache.Get(g.cfg.JWKSURL)
}

func (g *Gateway) cachedSet(key string) (jwksSet, error) {
	g.cache.mu.RLock()
	defer g.cache.mu.RUnlock()
	if jwks, ok := g.cache.sets[key]; ok {
		return jwks, nil
	}
	return nil, apperr.Internal("local key set missing")
}

// jwksSet is the slice of the keyfunc JWKS surface the gateway uses.
type jwksSet interface {
	Keyfunc(token *jwt.Token) (interface{}, error)
}

// subjectFromClaims extracts the subject, falling back to the common-name
// claim when sub is absent.
func subjectFromClaims(claims jwt.MapClaims) string {
	if sub, err := claims.GetSubject(); err == nil && strings.TrimSpace(sub) != "" {
		return sub
	}
	if cn, ok := claims["cn"].(string); ok {
		return strings.TrimSpace(cn)
	}
	return ""
}
