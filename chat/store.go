package chat

import "sync"

// Store is the in-memory, ordered message transcript.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: lookups report absence with a bool, never an error.
type Store struct {
	mu       sync.RWMutex
	messages []Message
	index    map[string]int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// Append adds a message to the end of the transcript.
func (s *Store) Append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index[msg.ID] = len(s.messages)
	s.messages = append(s.messages, msg)
}

// Get returns the message with the given id.
func (s *Store) Get(id string) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return Message{}, false
	}
	return s.messages[i], true
}

// Update applies fn to the message with the given id, in place.
// Returns false if the message does not exist.
func (s *Store) Update(id string, fn func(*Message)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return false
	}
	fn(&s.messages[i])
	return true
}

// Delete removes the message with the given id, preserving order.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.messages = append(s.messages[:i], s.messages[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.messages); j++ {
		s.index[s.messages[j].ID] = j
	}
	return true
}

// Preceding returns the nearest message before id with the given role.
func (s *Store) Preceding(id string, role Role) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return Message{}, false
	}
	for j := i - 1; j >= 0; j-- {
		if s.messages[j].Role == role {
			return s.messages[j], true
		}
	}
	return Message{}, false
}

// List returns a copy of the transcript in order.
func (s *Store) List() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Clear removes all messages.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.index = make(map[string]int)
}
