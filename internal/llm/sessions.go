// Package llm – in-process chat session cache.
//
// SessionCache keeps the formatted history of recently active conversations
// so repeat sends skip re-reading the full message list. It is strictly a
// cache: entries are lost on restart and history is always reloadable from
// the message store, so nothing here affects correctness.
package llm

import "sync"

// SessionCache is a mutex-guarded map of conversation ID to formatted turns.
// Constructed once and injected; never a package-level singleton.
type SessionCache struct {
	mu       sync.Mutex
	sessions map[string][]Turn
}

// NewSessionCache returns an empty cache.
func NewSessionCache() *SessionCache {
	return &SessionCache{sessions: make(map[string][]Turn)}
}

// Get returns the cached turns for conversationID, if any. The returned
// slice is a copy; callers may append freely.
func (c *SessionCache) Get(conversationID string) ([]Turn, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	turns, ok := c.sessions[conversationID]
	if !ok {
		return nil, false
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, true
}

// Put replaces the cached turns for conversationID.
func (c *SessionCache) Put(conversationID string, turns []Turn) {
	cp := make([]Turn, len(turns))
	copy(cp, turns)
	c.mu.Lock()
	c.sessions[conversationID] = cp
	c.mu.Unlock()
}

// Drop evicts a conversation, e.g. after deletion.
func (c *SessionCache) Drop(conversationID string) {
	c.mu.Lock()
	delete(c.sessions, conversationID)
	c.mu.Unlock()
}

// Len reports the number of cached conversations.
func (c *SessionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}
