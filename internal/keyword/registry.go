package keyword

import (
	"strconv"
	"sync"
)

// SessionRegistry hands out human friendly browser handles. Every opened
// browser gets the next index ("0", "1", ...) and optionally an alias; both
// resolve to the engine's own browser id.
type SessionRegistry struct {
	mu      sync.Mutex
	next    int
	order   []string
	indexes map[string]string
	aliases map[string]string
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		indexes: make(map[string]string),
		aliases: make(map[string]string),
	}
}

// Register records a browser and returns its index. The counter is never
// reset, indexes are not reused.
func (r *SessionRegistry) Register(engineID, alias string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	index := strconv.Itoa(r.next)
	r.next++
	r.indexes[index] = engineID
	r.order = append(r.order, index)
	if alias != "" {
		r.aliases[alias] = index
	}
	return index
}

// Remove forgets the browser with the given engine id together with the
// first alias that points at it.
func (r *SessionRegistry) Remove(engineID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, index := range r.order {
		if r.indexes[index] != engineID {
			continue
		}
		delete(r.indexes, index)
		r.order = append(r.order[:i], r.order[i+1:]...)
		for alias, idx := range r.aliases {
			if idx == index {
				delete(r.aliases, alias)
				break
			}
		}
		return
	}
}

// Reset forgets every browser but keeps the counter.
func (r *SessionRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.indexes = make(map[string]string)
	r.aliases = make(map[string]string)
}

// Resolve maps an index or alias to the engine browser id.
func (r *SessionRegistry) Resolve(indexOrAlias string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.indexes[indexOrAlias]; ok {
		return id, true
	}
	if index, ok := r.aliases[indexOrAlias]; ok {
		id, ok := r.indexes[index]
		return id, ok
	}
	return "", false
}

// IndexOf is the reverse of Resolve for indexes.
func (r *SessionRegistry) IndexOf(engineID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, index := range r.order {
		if r.indexes[index] == engineID {
			return index, true
		}
	}
	return "", false
}

// Aliases returns a copy of the alias to index table.
func (r *SessionRegistry) Aliases() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make(map[string]string, len(r.aliases))
	for k, v := range r.aliases {
		result[k] = v
	}
	return result
}

// Indexes returns the open browser indexes in opening order.
func (r *SessionRegistry) Indexes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.order...)
}
