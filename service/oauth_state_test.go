package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOAuthStateConsumedOnce(t *testing.T) {
	s := NewOAuthStateStore(time.Minute)
	defer s.Close()

	s.Put("state-1", PendingAuth{UserID: 7, Secret: "verifier"})

	got, ok := s.Take("state-1")
	require.True(t, ok)
	assert.Equal(t, uint(7), got.UserID)
	assert.Equal(t, "verifier", got.Secret)

	_, ok = s.Take("state-1")
	assert.False(t, ok, "a state token is good for exactly one callback")
}

func TestOAuthStateUnknownToken(t *testing.T) {
	s := NewOAuthStateStore(time.Minute)
	defer s.Close()

	_, ok := s.Take("never-issued")
	assert.False(t, ok)
}

func TestOAuthStateExpires(t *testing.T) {
	s := NewOAuthStateStore(50 * time.Millisecond)
	defer s.Close()

	s.Put("state-2", PendingAuth{UserID: 7})
	time.Sleep(150 * time.Millisecond)

	_, ok := s.Take("state-2")
	assert.False(t, ok, "expired states must not be redeemable")
}
