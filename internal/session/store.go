package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/tripbuddy/assist/internal/models"
	"github.com/tripbuddy/assist/internal/storage"
)

// idFormat renders session ids as display-friendly, sortable timestamps.
const idFormat = "2006-01-02 15:04:05"

// Store owns the session mapping and the active session pointer. All
// mutations persist synchronously to the injected storage.Store, so a
// committed mutation survives a restart unless the write itself failed.
type Store struct {
	mu       sync.Mutex
	store    storage.Store
	sessions map[string][]models.Message
	active   string
	now      func() time.Time
}

// NewStore loads persisted sessions from store. If no active session is
// persisted, or the persisted id no longer exists in the mapping, a fresh
// empty session is created and made active.
func NewStore(ctx context.Context, store storage.Store) (*Store, error) {
	s := &Store{
		store:    store,
		sessions: make(map[string][]models.Message),
		now:      time.Now,
	}

	if err := s.load(ctx); err != nil {
		return nil, err
	}

	if _, ok := s.sessions[s.active]; !ok {
		s.active = s.generateID()
		s.sessions[s.active] = []models.Message{}
		s.persist(ctx)
	}

	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	data, ok, err := s.store.Load(ctx, storage.KeySessions)
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}
	if ok {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal([]byte(data), &raw); err != nil {
			return fmt.Errorf("failed to decode session mapping: %w", err)
		}
		for id, list := range raw {
			messages, err := models.DecodeMessages(list)
			if err != nil {
				// The whole list is unreadable; keep the session, lose
				// its history.
				log.Printf("Session %s: unreadable message list: %v", id, err)
				messages = []models.Message{}
			}
			s.sessions[id] = messages
		}
	}

	active, ok, err := s.store.Load(ctx, storage.KeyActiveSession)
	if err != nil {
		return fmt.Errorf("failed to load active session: %w", err)
	}
	if ok {
		s.active = active
	}
	return nil
}

// persist writes the full mapping and the active pointer. Write failures are
// logged, not returned: in-memory state stays authoritative and the next
// successful write catches up.
func (s *Store) persist(ctx context.Context) {
	data, err := json.Marshal(s.sessions)
	if err != nil {
		log.Printf("Failed to encode sessions: %v", err)
		return
	}
	if err := s.store.Save(ctx, storage.KeySessions, string(data)); err != nil {
		log.Printf("Failed to persist sessions: %v", err)
	}
	if err := s.store.Save(ctx, storage.KeyActiveSession, s.active); err != nil {
		log.Printf("Failed to persist active session: %v", err)
	}
}

func (s *Store) generateID() string {
	id := s.now().Format(idFormat)
	if _, taken := s.sessions[id]; !taken {
		return id
	}
	// Same-second collision; disambiguate with a counter.
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", id, n)
		if _, taken := s.sessions[candidate]; !taken {
			return candidate
		}
	}
}

// List returns all session ids in sorted order.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Active returns the id of the session currently receiving new messages.
func (s *Store) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SwitchTo makes id the active session. Unknown ids are ignored.
func (s *Store) SwitchTo(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return
	}
	s.active = id
	s.persist(ctx)
}

// Create inserts a new empty session and returns its id. The active session
// is not changed; callers that want to switch call SwitchTo.
func (s *Store) Create(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.generateID()
	s.sessions[id] = []models.Message{}
	s.persist(ctx)
	return id
}

// Delete removes a session. If it was active, the pointer moves to the first
// remaining session in sorted order, or to a fresh empty session if none
// remain. The pointer never ends up referencing a missing session.
func (s *Store) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return
	}
	delete(s.sessions, id)

	if s.active == id {
		remaining := make([]string, 0, len(s.sessions))
		for rid := range s.sessions {
			remaining = append(remaining, rid)
		}
		if len(remaining) > 0 {
			sort.Strings(remaining)
			s.active = remaining[0]
		} else {
			s.active = s.generateID()
			s.sessions[s.active] = []models.Message{}
		}
	}
	s.persist(ctx)
}

// Rename moves a session's message list from oldID to newID. Renaming to an
// id that already names a different session returns ErrCollision, leaving
// both sessions untouched. Renaming a session to itself is a no-op.
func (s *Store) Rename(ctx context.Context, oldID, newID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if oldID == newID {
		return nil
	}
	if _, ok := s.sessions[oldID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, oldID)
	}
	if _, taken := s.sessions[newID]; taken {
		return fmt.Errorf("%w: %s", ErrCollision, newID)
	}

	s.sessions[newID] = s.sessions[oldID]
	delete(s.sessions, oldID)
	if s.active == oldID {
		s.active = newID
	}
	s.persist(ctx)
	return nil
}

// Append adds a message to the end of a session.
func (s *Store) Append(ctx context.Context, id string, msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	s.sessions[id] = append(s.sessions[id], msg)
	s.persist(ctx)
	return nil
}

// Messages returns a copy of a session's message list in append order.
// Unknown ids yield nil.
func (s *Store) Messages(id string) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.sessions[id]
	if !ok {
		return nil
	}
	out := make([]models.Message, len(list))
	copy(out, list)
	return out
}
