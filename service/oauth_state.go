package service

import (
	"time"

	"github.com/jellydator/ttlcache/v2"
)

// PendingAuth is what we stash between generating a provider auth link and
// the redirect coming back: who started the flow and the secret half of the
// exchange (code verifier or token secret, depending on the provider)
type PendingAuth struct {
	UserID uint
	Secret string
}

// OAuthStateStore correlates one-time OAuth state tokens with the request
// that initiated them. Entries are consumed on first read and evicted by
// TTL, so an abandoned flow can't pile up state forever.
type OAuthStateStore struct {
	cache *ttlcache.Cache
}

func NewOAuthStateStore(ttl time.Duration) *OAuthStateStore {
	c := ttlcache.NewCache()
	c.SetTTL(ttl)
	c.SkipTTLExtensionOnHit(true)

	return &OAuthStateStore{cache: c}
}

func (s *OAuthStateStore) Put(state string, pending PendingAuth) {
	s.cache.Set(state, pending)
}

// Take returns the pending auth for a state token and removes it, so every
// token is good for exactly one callback
func (s *OAuthStateStore) Take(state string) (PendingAuth, bool) {
	v, err := s.cache.Get(state)
	if err != nil {
		return PendingAuth{}, false
	}

	s.cache.Remove(state)
	return v.(PendingAuth), true
}

func (s *OAuthStateStore) Close() {
	s.cache.Close()
}
