package authgw

import (
	"encoding/json"
	"sync"

	"github.com/MicahParks/keyfunc/v2"
)

// KeySetCache holds verified JSON Web Key Sets keyed by their source URL.
// It is an explicit dependency of the Gateway rather than process-global
// state, so tests can seed it with a local key set.
type KeySetCache struct {
	mu   sync.RWMutex
	sets map[string]*keyfunc.JWKS
}

// NewKeySetCache creates an empty key set cache.
func NewKeySetCache() *KeySetCache {
	return &KeySetCache{sets: make(map[string]*keyfunc.JWKS)}
}

// Get returns the key set for url, fetching and caching it on first use.
// The fetched set lives for the process lifetime.
func (c *KeySetCache) Get(url string) (*keyfunc.JWKS, error) {
	c.mu.RLock()
	jwks, ok := c.sets[url]
	c.mu.RUnlock()
	if ok {
		return jwks, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if jwks, ok := c.sets[url]; ok {
		return jwks, nil
	}

	jwks, err := keyfunc.Get(url, keyfunc.Options{})
	if err != nil {
		return nil, err
	}
	c.sets[url] = jwks
	return jwks, nil
}

// Seed installs a key set parsed from raw JWKS JSON under the given key.
// Used for locally supplied key sets in tests and offline setups.
func (c *KeySetCache) Seed(key string, rawJWKS []byte) error {
	jwks, err := keyfunc.NewJSON(json.RawMessage(rawJWKS))
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.sets[key] = jwks
	c.mu.Unlock()
	return nil
}
