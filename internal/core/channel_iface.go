package core

import "github.com/rxl895/BrainWave/internal/domain"

// PublishResult reports delivery stats/backpressure to the hub.
type PublishResult struct {
	SentTo  int
	Dropped []ParticipantSession
}

// ParticipantDTO is a read-only view for APIs (no transport fields).
type ParticipantDTO struct {
	ID       domain.UserID `json:"id"`
	FullName string        `json:"full_name"`
}

// ChannelService is the core-facing API of one group's call channel.
// It owns the participant set but never touches transport resources.
type ChannelService interface {
	GroupID() domain.GroupID
	ParticipantCount() int
	ParticipantsSnapshot() []ParticipantDTO

	AddParticipant(sid SessionID, ps ParticipantSession)
	RemoveParticipant(sid SessionID)
	SendTo(to SessionID, data Frame) error
	Broadcast(from SessionID, data Frame) PublishResult
}

type ChannelInfo struct {
	GroupID          domain.GroupID `json:"group_id"`
	ParticipantCount int            `json:"participant_count"`
}

// ChannelManager hands out per-group channels.
type ChannelManager interface {
	GetOrCreate(id domain.GroupID) ChannelService
	List() []ChannelInfo
	StopChannel(id domain.GroupID)
}
