package app

import (
	"sync"

	"github.com/rxl895/BrainWave/internal/core"
	"github.com/rxl895/BrainWave/internal/domain"
)

type ChannelManagerImpl struct {
	mu       sync.RWMutex
	channels map[domain.GroupID]core.ChannelService
}

func NewChannelManager() core.ChannelManager {
	return &ChannelManagerImpl{channels: make(map[domain.GroupID]core.ChannelService)}
}

func (m *ChannelManagerImpl) GetOrCreate(id domain.GroupID) core.ChannelService {
	m.mu.RLock()
	ch, ok := m.channels[id]
	m.mu.RUnlock()
	if ok {
		return ch
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok = m.channels[id]; ok {
		return ch
	}
	ch = core.NewChannelService(id)
	m.channels[id] = ch
	return ch
}

func (m *ChannelManagerImpl) List() []core.ChannelInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.ChannelInfo, 0, len(m.channels))
	for id, ch := range m.channels {
		out = append(out, core.ChannelInfo{GroupID: id, ParticipantCount: ch.ParticipantCount()})
	}
	return out
}

func (m *ChannelManagerImpl) StopChannel(id domain.GroupID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.channels, id)
}
