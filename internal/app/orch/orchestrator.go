// Package orch coordinates the registry, the per-group call channels and the
// backpressure policy of the signaling server.
package orch

import (
	"github.com/rxl895/BrainWave/internal/app"
	"github.com/rxl895/BrainWave/internal/core"
)

type Orchestrator struct {
	Registry *app.Registry
	Channels core.ChannelManager
	Policy   app.Policy
}

// Forward relays a targeted signaling frame to one channel mate. Both ends
// must be in the same channel; per-pair ordering comes from the single
// delivery path.
func (o *Orchestrator) Forward(from, to core.SessionID, data core.Frame) error {
	groupID, _, ok := o.Registry.GroupOf(from)
	if !ok {
		return core.ErrNoSuchParticipant
	}
	ch := o.Channels.GetOrCreate(groupID)
	if err := ch.SendTo(to, data); err != nil {
		o.handleSlow(ch, to, err)
		return err
	}
	return nil
}

// Broadcast fans a frame out to the sender's channel mates.
func (o *Orchestrator) Broadcast(from core.SessionID, data core.Frame) {
	groupID, _, ok := o.Registry.GroupOf(from)
	if !ok {
		return
	}
	ch := o.Channels.GetOrCreate(groupID)

	res := ch.Broadcast(from, data)
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(ch, slow) {
		case app.KickParticipant:
			for _, snap := range o.Registry.MembersOfGroup(groupID) {
				if snap.Session == slow {
					o.KickBySID(snap.SID)
				}
			}
		case app.MarkSlow, app.DropFrame, app.NoAction:
		}
	}
}

func (o *Orchestrator) handleSlow(ch core.ChannelService, sid core.SessionID, err error) {
	if o.Policy == nil || err == core.ErrNoSuchParticipant {
		return
	}
	if sess, ok := o.Registry.GetSession(sid); ok {
		if o.Policy.OnBackPressure(ch, sess) == app.KickParticipant {
			o.KickBySID(sid)
		}
	}
}
