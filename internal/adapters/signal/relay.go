package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/rxl895/BrainWave/internal/core"
	wire "github.com/rxl895/BrainWave/internal/signal"
)

// relay forwards offer/answer/candidate envelopes to the targeted channel
// mate. The server never inspects SDP; media stays peer-to-peer.
func (ctl *SignalWSController) relay(sid core.SessionID, conn *WsSignalConn, env wire.Envelope) {
	if env.To == "" {
		ctl.sendError(conn, "missing target")
		return
	}
	b, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("marshal relay envelope")
		return
	}
	if err := ctl.Orch.Forward(sid, core.SessionID(env.To), b); err != nil {
		log.Warn().Err(err).
			Str("module", "signal").
			Str("from", string(sid)).
			Str("to", env.To).
			Str("type", string(env.Type)).
			Msg("relay failed")
		ctl.sendError(conn, "peer unavailable")
	}
}
