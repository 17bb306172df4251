package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/rxl895/BrainWave/internal/core"
	"github.com/rxl895/BrainWave/internal/domain"
)

// Join puts the session into a group's call channel, leaving any previous
// channel first. One channel per session at a time.
func (o *Orchestrator) Join(sid core.SessionID, groupID domain.GroupID) {
	if prev, _, ok := o.Registry.GroupOf(sid); ok {
		o.KickBySID(sid)
		log.Info().Str("sid", string(sid)).Str("from_group", string(prev)).Msg("left previous channel")
	}
	if session, ok := o.Registry.GetSession(sid); ok {
		ch := o.Channels.GetOrCreate(groupID)
		ch.AddParticipant(sid, session)
		o.Registry.UpdateGroup(sid, groupID)
		log.Info().Str("sid", string(sid)).Str("group", string(groupID)).Msg("joined channel")
	}
}

// KickBySID removes the session from its channel. The connection stays up.
func (o *Orchestrator) KickBySID(sid core.SessionID) {
	groupID, _, ok := o.Registry.GroupOf(sid)
	if !ok {
		return
	}
	ch := o.Channels.GetOrCreate(groupID)
	ch.RemoveParticipant(sid)
	o.Registry.RemoveGroup(sid)
}

// EvictChannel kicks everyone and stops the channel.
func (o *Orchestrator) EvictChannel(id domain.GroupID) {
	for _, snap := range o.Registry.MembersOfGroup(id) {
		o.KickBySID(snap.SID)
	}
	o.Channels.StopChannel(id)
}
