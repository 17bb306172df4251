// Package chat keeps the in-memory message log of one open group view in sync
// with the external store: optimistic local sends, server confirmations and
// realtime pushes merge into a single ordered, deduplicated sequence. The log
// is discarded when the view closes and rebuilt from the store on reopen.
package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rxl895/BrainWave/internal/domain"
)

// Store is the slice of the backend client the synchronizer needs.
type Store interface {
	LoadMessages(ctx context.Context, groupID domain.GroupID) ([]domain.Message, error)
	InsertMessage(ctx context.Context, m domain.Message) (domain.Message, error)
	DeleteMessage(ctx context.Context, id domain.MessageID) error
}

// DeliveryState tags each entry of the log.
type DeliveryState int

const (
	// Pending: optimistic local send awaiting the store's verdict.
	Pending DeliveryState = iota
	// Confirmed: persisted upstream (or arrived from upstream).
	Confirmed
)

type entry struct {
	msg   domain.Message
	state DeliveryState
}

// DedupWindow bounds how far apart an optimistic entry and its realtime echo
// may be timestamped and still be considered the same message.
const DedupWindow = 10 * time.Second

type Synchronizer struct {
	store   Store
	groupID domain.GroupID
	self    domain.UserID

	mu      sync.RWMutex
	entries []entry
}

func NewSynchronizer(st Store, groupID domain.GroupID, self domain.UserID) *Synchronizer {
	return &Synchronizer{store: st, groupID: groupID, self: self}
}

// LoadHistory replaces the log wholesale with the store's ordered view.
func (s *Synchronizer) LoadHistory(ctx context.Context) error {
	msgs, err := s.store.LoadMessages(ctx, s.groupID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries = make([]entry, 0, len(msgs))
	for _, m := range msgs {
		s.entries = append(s.entries, entry{msg: m, state: Confirmed})
	}
	s.sortLocked()
	s.mu.Unlock()
	log.Info().Str("module", "chat").Str("group", string(s.groupID)).Int("count", len(msgs)).Msg("history loaded")
	return nil
}

// Send appends an optimistic entry immediately, then asks the store to
// persist it. On failure the entry is rolled back and the error returned; no
// automatic retry.
func (s *Synchronizer) Send(ctx context.Context, content string) (domain.Message, error) {
	temp := domain.Message{
		ID:        domain.MessageID("local-" + uuid.NewString()),
		GroupID:   s.groupID,
		SenderID:  s.self,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.entries = append(s.entries, entry{msg: temp, state: Pending})
	s.mu.Unlock()

	confirmed, err := s.store.InsertMessage(ctx, temp)
	if err != nil {
		s.remove(temp.ID)
		log.Error().Err(err).Str("module", "chat").Str("group", string(s.groupID)).Msg("send failed, rolled back")
		return domain.Message{}, err
	}

	s.mu.Lock()
	if i := s.indexLocked(temp.ID); i >= 0 {
		s.entries[i] = entry{msg: confirmed, state: Confirmed}
		s.sortLocked()
	}
	s.mu.Unlock()
	return confirmed, nil
}

// OnExternalInsert merges a realtime push. A push matching a recent local
// entry from the same sender with the same content confirms that entry
// instead of duplicating it.
func (s *Synchronizer) OnExternalInsert(m domain.Message) {
	if m.GroupID != s.groupID {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.entries) - 1; i >= 0; i-- {
		e := &s.entries[i]
		if e.msg.ID == m.ID {
			return // already known
		}
		if e.msg.SenderID == m.SenderID && e.msg.Content == m.Content &&
			absDiff(e.msg.CreatedAt, m.CreatedAt) <= DedupWindow {
			e.msg = m
			e.state = Confirmed
			s.sortLocked()
			return
		}
	}
	s.entries = append(s.entries, entry{msg: m, state: Confirmed})
	s.sortLocked()
}

// Delete asks the store to remove a message, then drops it locally. Messages
// of other senders are silently refused; the log is untouched.
func (s *Synchronizer) Delete(ctx context.Context, id domain.MessageID) error {
	s.mu.RLock()
	i := s.indexLocked(id)
	var sender domain.UserID
	if i >= 0 {
		sender = s.entries[i].msg.SenderID
	}
	s.mu.RUnlock()

	if i < 0 || sender != s.self {
		return nil
	}
	if err := s.store.DeleteMessage(ctx, id); err != nil {
		return err
	}
	s.remove(id)
	return nil
}

// Messages returns an ordered snapshot of the log.
func (s *Synchronizer) Messages() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Message, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.msg)
	}
	return out
}

func (s *Synchronizer) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// State reports the delivery state of one entry.
func (s *Synchronizer) State(id domain.MessageID) (DeliveryState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.entries[i].state, true
	}
	return 0, false
}

func (s *Synchronizer) remove(id domain.MessageID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
	}
}

func (s *Synchronizer) indexLocked(id domain.MessageID) int {
	for i := range s.entries {
		if s.entries[i].msg.ID == id {
			return i
		}
	}
	return -1
}

// sortLocked keeps the display order: stable by CreatedAt so equal timestamps
// preserve arrival order.
func (s *Synchronizer) sortLocked() {
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].msg.CreatedAt.Before(s.entries[j].msg.CreatedAt)
	})
}

func absDiff(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
