package sqlite

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sqlite-ai/rembed/pkg/provider"
)

// handlePrefix marks option-handle tokens so registry inserts can tell
// them apart from inline option text.
const handlePrefix = "rembed-client-options:"

// handleStore holds clients built by rembed_client_options until a
// rembed_clients insert claims them. Tokens are single-use: claiming
// removes the entry, so a handle cannot be replayed.
type handleStore struct {
	mu      sync.Mutex
	pending map[string]provider.Client
}

var handles = &handleStore{pending: make(map[string]provider.Client)}

// put stores a client and returns its token.
func (s *handleStore) put(client provider.Client) string {
	token := handlePrefix + uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[token] = client
	return token
}

// claim consumes a token, returning the client it carries.
func (s *handleStore) claim(token string) (provider.Client, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	client, ok := s.pending[token]
	if ok {
		delete(s.pending, token)
	}
	return client, ok
}

// isHandle reports whether the options value is a handle token.
func isHandle(options string) bool {
	return strings.HasPrefix(options, handlePrefix)
}
