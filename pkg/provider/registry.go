package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sqlite-ai/rembed/pkg/types"
)

// Registered is one registry entry: a user-chosen name bound to a client.
type Registered struct {
	Name   string
	Kind   types.ClientKind
	Client Client
}

// Registry is the process-wide name-to-client map backing rembed_clients.
// The host engine issues one call at a time, but the batch engine's workers
// may read concurrently with host-thread writes, so access is mutex-guarded.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Registered
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Registered)}
}

// Register binds a name to a client. Re-registering an existing name
// overwrites the previous entry (last write wins).
func (r *Registry) Register(name string, client Client) {
	kind := types.KindEmbedding
	if _, ok := client.(ImageClient); ok {
		kind = types.KindMultimodal
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = Registered{Name: name, Kind: kind, Client: client}
}

// Lookup returns the entry for name.
func (r *Registry) Lookup(name string) (Registered, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.clients[name]
	if !ok {
		return Registered{}, fmt.Errorf("%w: client with name %s was not registered with rembed_clients", types.ErrUnknownClient, name)
	}
	return entry, nil
}

// Names returns a sorted snapshot of the registered client names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
