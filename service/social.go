package service

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"artmux/portfolio-api/model"
	"artmux/portfolio-api/security"
)

// Provider is one social network we can cross-post to. The set is closed:
// each implementation is registered under its social_medias row id.
type Provider interface {
	// AuthURL builds the provider's authorization link for a user and
	// stashes the pending state so the callback can be correlated later
	AuthURL(userID uint) (string, error)

	// ExchangeCallback consumes the state token, trades the code for
	// credentials, fetches the account identity and returns an Access row
	// ready to insert (credentials already encrypted)
	ExchangeCallback(query url.Values) (*model.Access, error)

	// Publish cross-posts a publication through the given access
	Publish(access *model.Access, pub *model.Publication, imagePath string) error

	// RevokeURL is where the user can revoke our app's access after we
	// forget their credentials
	RevokeURL() string
}

const (
	TwitterID uint = 1
	RedditID  uint = 2
)

// Registry dispatches from a social media id to its provider
type Registry struct {
	providers map[uint]Provider
}

func NewRegistry(states *OAuthStateStore) *Registry {
	return &Registry{
		providers: map[uint]Provider{
			TwitterID: NewTwitterProvider(states),
			RedditID:  NewRedditProvider(states),
		},
	}
}

func (r *Registry) Get(id uint) (Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

// Shared client for all provider API calls
var socialHTTP = &http.Client{Timeout: 15 * time.Second}

// encryptFields builds the encrypted credentials blob for a new access row
func encryptFields(salt string, fields map[string]string) (model.AccessData, error) {
	key := security.CreateKey(salt)
	data := model.AccessData{}

	for name, value := range fields {
		ct, err := security.Encrypt(value, key)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt %s, %w", name, err)
		}
		data[name] = ct
	}

	return data, nil
}

// DecryptField reads one credential field back out of an access row
func DecryptField(access *model.Access, name string) (string, error) {
	ct, ok := access.Data[name]
	if !ok {
		return "", fmt.Errorf("access %d has no %s field", access.ID, name)
	}

	return security.Decrypt(ct, security.CreateKey(access.Salt))
}
