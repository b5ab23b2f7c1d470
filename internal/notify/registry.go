package notify

import (
	"sync"

	"github.com/teamdesk/teamdesk/internal/model"
	"golang.org/x/exp/maps"
)

// Channel is one live client connection able to receive pushes. A handle
// belongs to exactly one user at a time; a user may hold several.
type Channel interface {
	Send(message []byte) error
}

// Registry is the process-local map of who is currently reachable. It is a
// disposable cache: rebuilt from zero on restart, clients re-register on
// reconnect. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	owners map[Channel]model.ID
	users  map[model.ID]map[Channel]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		owners: make(map[Channel]model.ID),
		users:  make(map[model.ID]map[Channel]struct{}),
	}
}

// Register binds a channel handle to a user. Idempotent per handle; a handle
// already bound to a different user is re-homed.
func (r *Registry) Register(ch Channel, user model.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.owners[ch]; ok {
		if prev == user {
			return
		}
		r.drop(ch, prev)
	}

	r.owners[ch] = user
	if r.users[user] == nil {
		r.users[user] = make(map[Channel]struct{})
	}
	r.users[user][ch] = struct{}{}
}

// Unregister removes a handle from whichever user owns it. No-op if absent.
func (r *Registry) Unregister(ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.owners[ch]
	if !ok {
		return
	}
	r.drop(ch, user)
}

func (r *Registry) drop(ch Channel, user model.ID) {
	delete(r.owners, ch)
	delete(r.users[user], ch)
	if len(r.users[user]) == 0 {
		delete(r.users, user)
	}
}

// ChannelsFor snapshots the user's open channels.
func (r *Registry) ChannelsFor(user model.ID) []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := make([]Channel, 0, len(r.users[user]))
	for ch := range r.users[user] {
		channels = append(channels, ch)
	}
	return channels
}

// Users snapshots the ids with at least one open channel.
func (r *Registry) Users() []model.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return maps.Keys(r.users)
}
