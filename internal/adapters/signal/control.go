package signal

import (
	wire "github.com/rxl895/BrainWave/internal/signal"
)

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.sendEnvelope(conn, wire.Envelope{Type: wire.KindPong})
}
