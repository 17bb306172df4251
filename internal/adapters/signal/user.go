package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/rxl895/BrainWave/internal/core"
	wire "github.com/rxl895/BrainWave/internal/signal"
)

func (ctl *SignalWSController) handleRename(sid core.SessionID, conn *WsSignalConn, env wire.Envelope) {
	var p wire.PeerPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad rename payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.FullName == "" {
		ctl.sendError(conn, "empty name")
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("name", p.FullName).Msg("rename")
	if err := ctl.Orch.Registry.UpdateFullName(sid, p.FullName); err != nil {
		ctl.sendError(conn, "invalid_name")
		return
	}
	ctl.handleWhoAmI(sid, conn)

	user := ctl.Orch.Registry.GetOrCreateUser(sid)
	payload, _ := json.Marshal(wire.PeerPayload{ID: string(user.ID), FullName: user.FullName})
	ctl.BroadcastFrom(sid, wire.Envelope{
		Type:    wire.KindRename,
		From:    string(sid),
		Payload: payload,
	})
}

func (ctl *SignalWSController) handleWhoAmI(sid core.SessionID, conn *WsSignalConn) {
	user := ctl.Orch.Registry.GetOrCreateUser(sid)

	env := wire.Envelope{Type: wire.KindWhoAmI, From: string(sid)}
	if groupID, _, ok := ctl.Orch.Registry.GroupOf(sid); ok {
		env.Group = string(groupID)
	}
	payload, _ := json.Marshal(wire.PeerPayload{ID: string(user.ID), FullName: user.FullName})
	env.Payload = payload
	ctl.sendEnvelope(conn, env)
}
