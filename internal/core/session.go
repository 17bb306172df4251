package core

import "github.com/rxl895/BrainWave/internal/domain"

// SessionID identifies one connected signaling client (the client token).
type SessionID string

// ParticipantSession binds a user's meta and their transport endpoint.
// This is what a channel stores and fans out to.
type ParticipantSession interface {
	Meta() *domain.User
	Signal() SignalConnection
}

type participantSession struct {
	meta *domain.User
	conn SignalConnection
}

func NewParticipantSession(meta *domain.User, conn SignalConnection) ParticipantSession {
	return &participantSession{meta: meta, conn: conn}
}

func (p *participantSession) Meta() *domain.User       { return p.meta }
func (p *participantSession) Signal() SignalConnection { return p.conn }
