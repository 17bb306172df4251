package app

import "github.com/rxl895/BrainWave/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickParticipant
	DropFrame
)

type Policy interface {
	OnBackPressure(ch core.ChannelService, participant core.ParticipantSession) BackpressureAction
}

// SimplePolicy drops slow consumers: a signaling client that cannot keep up
// with offer/answer traffic is better reconnected than queued.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(ch core.ChannelService, participant core.ParticipantSession) BackpressureAction {
	return KickParticipant
}
