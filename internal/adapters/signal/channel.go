package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/rxl895/BrainWave/internal/core"
	"github.com/rxl895/BrainWave/internal/domain"
	wire "github.com/rxl895/BrainWave/internal/signal"
)

func (ctl *SignalWSController) handleJoin(sid core.SessionID, conn *WsSignalConn, env wire.Envelope) {
	if env.Group == "" {
		ctl.sendError(conn, "missing group")
		return
	}
	user := ctl.Orch.Registry.GetOrCreateUser(sid)
	if !ctl.limiter.Allow(user.ID) {
		ctl.sendError(conn, "too many joins")
		return
	}
	groupID := domain.GroupID(env.Group)

	// Hopping channels: tell the old channel's mates before switching, while
	// the session is still routable there.
	if prev, _, ok := ctl.Orch.Registry.GroupOf(sid); ok && prev != groupID {
		payload, _ := json.Marshal(wire.PeerPayload{ID: string(user.ID), FullName: user.FullName})
		ctl.BroadcastFrom(sid, wire.Envelope{
			Type:    wire.KindPeerLeft,
			From:    string(sid),
			Group:   string(prev),
			Payload: payload,
		})
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("group", env.Group).Msg("join")
	ctl.Orch.Join(sid, groupID)

	ch := ctl.Orch.Channels.GetOrCreate(groupID)
	peers := make([]wire.PeerPayload, 0, ch.ParticipantCount())
	for _, dto := range ch.ParticipantsSnapshot() {
		peers = append(peers, wire.PeerPayload{ID: string(dto.ID), FullName: dto.FullName})
	}
	state, err := wire.NewEnvelope(wire.KindChannelState, "", env.Group, wire.ChannelStatePayload{
		Group: env.Group,
		Peers: peers,
		Count: ch.ParticipantCount(),
	})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("channel state payload")
		return
	}
	ctl.sendEnvelope(conn, state)

	payload, _ := json.Marshal(wire.PeerPayload{ID: string(user.ID), FullName: user.FullName})
	ctl.BroadcastFrom(sid, wire.Envelope{
		Type:    wire.KindPeerJoined,
		From:    string(sid),
		Group:   env.Group,
		Payload: payload,
	})
}

// handleLeave exits the current channel; the connection stays up.
func (ctl *SignalWSController) handleLeave(sid core.SessionID, conn *WsSignalConn) {
	groupID, _, ok := ctl.Orch.Registry.GroupOf(sid)
	if !ok {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")

	user := ctl.Orch.Registry.GetOrCreateUser(sid)
	payload, _ := json.Marshal(wire.PeerPayload{ID: string(user.ID), FullName: user.FullName})
	ctl.BroadcastFrom(sid, wire.Envelope{
		Type:    wire.KindPeerLeft,
		From:    string(sid),
		Group:   string(groupID),
		Payload: payload,
	})

	ctl.Orch.KickBySID(sid)
	ctl.sendEnvelope(conn, wire.Envelope{Type: wire.KindLeave, Group: string(groupID)})
}
