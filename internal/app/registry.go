package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/rxl895/BrainWave/internal/core"
	"github.com/rxl895/BrainWave/internal/domain"
)

type sessionEntry struct {
	GroupID domain.GroupID
	Session core.ParticipantSession
	Cancel  context.CancelFunc
}

// Registry tracks connected signaling clients and which call channel each is
// in. Cancel funcs bound here end the connection's pumps.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
	users    map[core.SessionID]*domain.User
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
		users:    make(map[core.SessionID]*domain.User),
	}
}

func (r *Registry) GetOrCreateUser(sid core.SessionID) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[sid]; ok {
		return u
	}
	u := &domain.User{ID: domain.UserID(sid), FullName: "guest"}
	r.users[sid] = u
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("created new user")
	return u
}

func (r *Registry) UpdateFullName(sid core.SessionID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[sid]
	if !ok {
		return nil
	}
	if err := u.SetFullName(name); err != nil {
		return err
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("name", name).Msg("updated name")
	return nil
}

func (r *Registry) BindSignal(sid core.SessionID, sess core.ParticipantSession, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Session: sess, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound signal")
}

func (r *Registry) GetSession(sid core.SessionID) (core.ParticipantSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Session, true
	}
	return nil, false
}

func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

// GroupOf returns the channel the session joined, if any.
func (r *Registry) GroupOf(sid core.SessionID) (domain.GroupID, core.ParticipantSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sid]
	if !ok || entry.GroupID == "" {
		return "", nil, false
	}
	return entry.GroupID, entry.Session, true
}

func (r *Registry) UpdateGroup(sid core.SessionID, groupID domain.GroupID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return false
	}
	entry.GroupID = groupID
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("group", string(groupID)).Msg("updated group")
	return true
}

func (r *Registry) RemoveGroup(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.sessions[sid]; ok {
		entry.GroupID = ""
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("removed group association")
}

type regSnap struct {
	SID     core.SessionID
	Session core.ParticipantSession
}

func (r *Registry) MembersOfGroup(id domain.GroupID) []regSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]regSnap, 0, len(r.sessions))
	for sid, e := range r.sessions {
		if e.GroupID == id {
			out = append(out, regSnap{SID: sid, Session: e.Session})
		}
	}
	return out
}

// RoomMates returns the other members of the caller's channel.
func (r *Registry) RoomMates(sid core.SessionID) []regSnap {
	id, _, ok := r.GroupOf(sid)
	if !ok {
		return nil
	}
	all := r.MembersOfGroup(id)
	out := all[:0]
	for _, snap := range all {
		if snap.SID != sid {
			out = append(out, snap)
		}
	}
	return out
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
