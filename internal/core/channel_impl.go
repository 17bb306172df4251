package core

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/rxl895/BrainWave/internal/domain"
)

var ErrNoSuchParticipant = errors.New("no such participant")

// channelImpl is a threadsafe in-memory call channel.
// It never closes adapter-owned resources.
type channelImpl struct {
	groupID domain.GroupID
	mu      sync.RWMutex
	bySID   map[SessionID]ParticipantSession
	byUser  map[domain.UserID]SessionID
}

func NewChannelService(groupID domain.GroupID) ChannelService {
	return &channelImpl{
		groupID: groupID,
		bySID:   make(map[SessionID]ParticipantSession),
		byUser:  make(map[domain.UserID]SessionID),
	}
}

func (c *channelImpl) GroupID() domain.GroupID { return c.groupID }

func (c *channelImpl) ParticipantCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bySID)
}

func (c *channelImpl) AddParticipant(sid SessionID, ps ParticipantSession) {
	u := ps.Meta().ID
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bySID[sid] = ps
	c.byUser[u] = sid
	log.Info().Str("module", "core.channel").Str("sid", string(sid)).Str("user", string(u)).Msg("participant added")
}

func (c *channelImpl) RemoveParticipant(sid SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ps, ok := c.bySID[sid]; ok {
		delete(c.byUser, ps.Meta().ID)
	}
	delete(c.bySID, sid)
	log.Info().Str("module", "core.channel").Str("sid", string(sid)).Msg("participant removed")
}

// SendTo delivers a frame to one participant. Targeted delivery is what
// keeps offer/answer exchanges ordered per participant pair.
func (c *channelImpl) SendTo(to SessionID, data Frame) error {
	c.mu.RLock()
	ps, ok := c.bySID[to]
	c.mu.RUnlock()
	if !ok {
		return ErrNoSuchParticipant
	}
	return ps.Signal().TrySend(data)
}

func (c *channelImpl) Broadcast(from SessionID, data Frame) PublishResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res := PublishResult{}
	for sid, ps := range c.bySID {
		if sid == from {
			continue
		}
		if err := ps.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, ps)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.channel").Str("from", string(from)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (c *channelImpl) ParticipantsSnapshot() []ParticipantDTO {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ParticipantDTO, 0, len(c.bySID))
	for _, ps := range c.bySID {
		u := ps.Meta()
		out = append(out, ParticipantDTO{ID: u.ID, FullName: u.FullName})
	}
	return out
}
