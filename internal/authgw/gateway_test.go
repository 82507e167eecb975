package authgw

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/schradermade/hvac-ai-sub002/internal/apperr"
)

const (
	testIssuer   = "https://login.example.com"
	testAudience = "hvac-ai"
	testKeyID    = "test-key-1"
)

type fakeStore struct {
	identities map[string]*Identity // keyed by issuer+"|"+subject
	err        error
}

func (f *fakeStore) Lookup(ctx context.Context, issuer, subject string) (*Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identities[issuer+"|"+subject], nil
}

func newTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func jwksJSON(key *rsa.PrivateKey) string {
	n := base64.RawURLEncoding.EncodeToString(key.N.Bytes())
	e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes())
	return fmt.Sprintf(`{"keys":[{"kty":"RSA","kid":%q,"use":"sig","alg":"RS256","n":%q,"e":%q}]}`,
		testKeyID, n, e)
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func baseClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss": testIssuer,
		"aud": testAudience,
		"sub": "ext-user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
}

func newTestGateway(t *testing.T, key *rsa.PrivateKey, store IdentityStore) *Gateway {
	t.Helper()
	return New(Config{
		Issuer:    testIssuer,
		Audience:  testAudience,
		LocalJWKS: jwksJSON(key),
	}, NewKeySetCache(), store)
}

func TestAuthenticateResolvesIdentity(t *testing.T) {
	key := newTestKey(t)
	store := &fakeStore{identities: map[string]*Identity{
		testIssuer + "|ext-user-1": {UserID: "user-1", TenantID: "tenant-a", Role: "technician"},
	}}
	g := newTestGateway(t, key, store)

	identity, err := g.Authenticate(context.Background(), signToken(t, key, baseClaims()))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if identity.UserID != "user-1" || identity.TenantID != "tenant-a" {
		t.Fatalf("identity = %+v", identity)
	}
}

func TestAuthenticateWrongAudience(t *testing.T) {
	key := newTestKey(t)
	g := newTestGateway(t, key, &fakeStore{})

	claims := baseClaims()
	claims["aud"] = "some-other-service"
	_, err := g.Authenticate(context.Background(), signToken(t, key, claims))
	e, ok := apperr.As(err)
	if !ok || e.Status != 401 {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuthenticateWrongIssuer(t *testing.T) {
	key := newTestKey(t)
	g := newTestGateway(t, key, &fakeStore{})

	claims := baseClaims()
	claims["iss"] = "https://evil.example.com"
	_, err := g.Authenticate(context.Background(), signToken(t, key, claims))
	e, ok := apperr.As(err)
	if !ok || e.Status != 401 {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	key := newTestKey(t)
	g := newTestGateway(t, key, &fakeStore{})

	claims := baseClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()
	_, err := g.Authenticate(context.Background(), signToken(t, key, claims))
	e, ok := apperr.As(err)
	if !ok || e.Status != 401 {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuthenticateUnknownSignerKey(t *testing.T) {
	key := newTestKey(t)
	other := newTestKey(t)
	g := newTestGateway(t, key, &fakeStore{})

	_, err := g.Authenticate(context.Background(), signToken(t, other, baseClaims()))
	e, ok := apperr.As(err)
	if !ok || e.Status != 401 {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuthenticateUnprovisionedSubject(t *testing.T) {
	key := newTestKey(t)
	g := newTestGateway(t, key, &fakeStore{identities: map[string]*Identity{}})

	_, err := g.Authenticate(context.Background(), signToken(t, key, baseClaims()))
	e, ok := apperr.As(err)
	if !ok || e.Status != 403 {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestAuthenticateCommonNameFallback(t *testing.T) {
	key := newTestKey(t)
	store := &fakeStore{identities: map[string]*Identity{
		testIssuer + "|jdoe": {UserID: "user-2", TenantID: "tenant-a", Role: "lead_tech"},
	}}
	g := newTestGateway(t, key, store)

	claims := baseClaims()
	delete(claims, "sub")
	claims["cn"] = "jdoe"
	identity, err := g.Authenticate(context.Background(), signToken(t, key, claims))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if identity.UserID != "user-2" {
		t.Fatalf("identity = %+v", identity)
	}
}

func TestAuthenticateMissingToken(t *testing.T) {
	key := newTestKey(t)
	g := newTestGateway(t, key, &fakeStore{})

	_, err := g.Authenticate(context.Background(), "")
	e, ok := apperr.As(err)
	if !ok || e.Status != 401 {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuthenticateUnconfiguredAudience(t *testing.T) {
	key := newTestKey(t)
	g := New(Config{Issuer: testIssuer, LocalJWKS: jwksJSON(key)}, NewKeySetCache(), &fakeStore{})

	_, err := g.Authenticate(context.Background(), signToken(t, key, baseClaims()))
	e, ok := apperr.As(err)
	if !ok || e.Status != 500 {
		t.Fatalf("expected 500, got %v", err)
	}
}
