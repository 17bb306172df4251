package signal_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	router "github.com/rxl895/BrainWave/internal/adapters/http"
	"github.com/rxl895/BrainWave/internal/app"
	"github.com/rxl895/BrainWave/internal/app/orch"
	"github.com/rxl895/BrainWave/internal/config"
	wire "github.com/rxl895/BrainWave/internal/signal"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Channels: app.NewChannelManager(),
		Policy:   app.SimplePolicy{},
	}
	cfg := &config.Config{Mode: "release", Secret: "test-secret"}
	r := router.SetupRouter(context.Background(), cfg, o)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// testPeer is one connected signaling client, pinned to a client token via
// the ct cookie.
type testPeer struct {
	t    *testing.T
	conn *websocket.Conn
	recv chan wire.Envelope
}

func dialPeer(t *testing.T, srv *httptest.Server, token string) *testPeer {
	t.Helper()
	url := strings.Replace(srv.URL, "http", "ws", 1) + "/api/ws/signal"
	header := http.Header{"Cookie": {"ct=" + token}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)

	p := &testPeer{t: t, conn: conn, recv: make(chan wire.Envelope, 32)}
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				close(p.recv)
				return
			}
			var env wire.Envelope
			if json.Unmarshal(data, &env) == nil {
				p.recv <- env
			}
		}
	}()
	t.Cleanup(func() { _ = conn.Close() })
	return p
}

func (p *testPeer) send(env wire.Envelope) {
	p.t.Helper()
	require.NoError(p.t, p.conn.WriteJSON(env))
}

func (p *testPeer) expect(kind wire.Kind) wire.Envelope {
	p.t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case env, ok := <-p.recv:
			if !ok {
				p.t.Fatalf("connection closed while waiting for %s", kind)
			}
			if env.Type == kind {
				return env
			}
			// Skip interleaved notifications of other kinds.
		case <-deadline:
			p.t.Fatalf("timed out waiting for %s", kind)
		}
	}
}

func TestJoinReturnsChannelState(t *testing.T) {
	srv := newTestServer(t)
	alice := dialPeer(t, srv, "alice")

	alice.send(wire.Envelope{Type: wire.KindJoin, Group: "g1"})
	state := alice.expect(wire.KindChannelState)

	var payload wire.ChannelStatePayload
	require.NoError(t, json.Unmarshal(state.Payload, &payload))
	assert.Equal(t, "g1", payload.Group)
	assert.Equal(t, 1, payload.Count)
	require.Len(t, payload.Peers, 1)
	assert.Equal(t, "alice", payload.Peers[0].ID)
}

func TestJoinNotifiesChannelMates(t *testing.T) {
	srv := newTestServer(t)
	alice := dialPeer(t, srv, "alice")
	alice.send(wire.Envelope{Type: wire.KindJoin, Group: "g1"})
	alice.expect(wire.KindChannelState)

	bob := dialPeer(t, srv, "bob")
	bob.send(wire.Envelope{Type: wire.KindJoin, Group: "g1"})
	bob.expect(wire.KindChannelState)

	joined := alice.expect(wire.KindPeerJoined)
	assert.Equal(t, "bob", joined.From)
	var peer wire.PeerPayload
	require.NoError(t, json.Unmarshal(joined.Payload, &peer))
	assert.Equal(t, "bob", peer.ID)
}

func TestRelayTargetedOfferStampsSender(t *testing.T) {
	srv := newTestServer(t)
	alice := dialPeer(t, srv, "alice")
	alice.send(wire.Envelope{Type: wire.KindJoin, Group: "g1"})
	alice.expect(wire.KindChannelState)

	bob := dialPeer(t, srv, "bob")
	bob.send(wire.Envelope{Type: wire.KindJoin, Group: "g1"})
	bob.expect(wire.KindChannelState)
	alice.expect(wire.KindPeerJoined)

	payload, _ := json.Marshal(wire.SDPPayload{SDP: "v=0 offer"})
	bob.send(wire.Envelope{
		Type:    wire.KindOffer,
		From:    "mallory", // spoofed; the server must overwrite it
		To:      "alice",
		Group:   "g1",
		Payload: payload,
	})

	offer := alice.expect(wire.KindOffer)
	assert.Equal(t, "bob", offer.From)
	assert.Equal(t, "alice", offer.To)
	var sdp wire.SDPPayload
	require.NoError(t, json.Unmarshal(offer.Payload, &sdp))
	assert.Equal(t, "v=0 offer", sdp.SDP)

	// The answer travels the same targeted path back.
	payload, _ = json.Marshal(wire.SDPPayload{SDP: "v=0 answer"})
	alice.send(wire.Envelope{Type: wire.KindAnswer, To: "bob", Group: "g1", Payload: payload})
	answer := bob.expect(wire.KindAnswer)
	assert.Equal(t, "alice", answer.From)
}

func TestRelayToUnknownPeer(t *testing.T) {
	srv := newTestServer(t)
	alice := dialPeer(t, srv, "alice")
	alice.send(wire.Envelope{Type: wire.KindJoin, Group: "g1"})
	alice.expect(wire.KindChannelState)

	payload, _ := json.Marshal(wire.SDPPayload{SDP: "v=0"})
	alice.send(wire.Envelope{Type: wire.KindOffer, To: "ghost", Group: "g1", Payload: payload})

	errEnv := alice.expect(wire.KindError)
	assert.Equal(t, "peer unavailable", errEnv.Error)
}

func TestRelayWithoutTarget(t *testing.T) {
	srv := newTestServer(t)
	alice := dialPeer(t, srv, "alice")
	alice.send(wire.Envelope{Type: wire.KindJoin, Group: "g1"})
	alice.expect(wire.KindChannelState)

	payload, _ := json.Marshal(wire.SDPPayload{SDP: "v=0"})
	alice.send(wire.Envelope{Type: wire.KindOffer, Group: "g1", Payload: payload})

	errEnv := alice.expect(wire.KindError)
	assert.Equal(t, "missing target", errEnv.Error)
}

func TestLeaveNotifiesChannelMates(t *testing.T) {
	srv := newTestServer(t)
	alice := dialPeer(t, srv, "alice")
	alice.send(wire.Envelope{Type: wire.KindJoin, Group: "g1"})
	alice.expect(wire.KindChannelState)

	bob := dialPeer(t, srv, "bob")
	bob.send(wire.Envelope{Type: wire.KindJoin, Group: "g1"})
	bob.expect(wire.KindChannelState)
	alice.expect(wire.KindPeerJoined)

	bob.send(wire.Envelope{Type: wire.KindLeave})
	left := alice.expect(wire.KindPeerLeft)
	assert.Equal(t, "bob", left.From)
}

func TestDisconnectBroadcastsPeerLeft(t *testing.T) {
	srv := newTestServer(t)
	alice := dialPeer(t, srv, "alice")
	alice.send(wire.Envelope{Type: wire.KindJoin, Group: "g1"})
	alice.expect(wire.KindChannelState)

	bob := dialPeer(t, srv, "bob")
	bob.send(wire.Envelope{Type: wire.KindJoin, Group: "g1"})
	bob.expect(wire.KindChannelState)
	alice.expect(wire.KindPeerJoined)

	require.NoError(t, bob.conn.Close())
	left := alice.expect(wire.KindPeerLeft)
	assert.Equal(t, "bob", left.From)
}

func TestRenameAndWhoAmI(t *testing.T) {
	srv := newTestServer(t)
	alice := dialPeer(t, srv, "alice")
	alice.send(wire.Envelope{Type: wire.KindJoin, Group: "g1"})
	alice.expect(wire.KindChannelState)

	bob := dialPeer(t, srv, "bob")
	bob.send(wire.Envelope{Type: wire.KindJoin, Group: "g1"})
	bob.expect(wire.KindChannelState)
	alice.expect(wire.KindPeerJoined)

	payload, _ := json.Marshal(wire.PeerPayload{FullName: "Bob River"})
	bob.send(wire.Envelope{Type: wire.KindRename, Payload: payload})

	// The renamer gets a whoami echo; channel mates get the rename.
	who := bob.expect(wire.KindWhoAmI)
	var me wire.PeerPayload
	require.NoError(t, json.Unmarshal(who.Payload, &me))
	assert.Equal(t, "Bob River", me.FullName)
	assert.Equal(t, "g1", who.Group)

	renamed := alice.expect(wire.KindRename)
	assert.Equal(t, "bob", renamed.From)
	var peer wire.PeerPayload
	require.NoError(t, json.Unmarshal(renamed.Payload, &peer))
	assert.Equal(t, "Bob River", peer.FullName)
}

func TestRenameEmptyName(t *testing.T) {
	srv := newTestServer(t)
	alice := dialPeer(t, srv, "alice")

	payload, _ := json.Marshal(wire.PeerPayload{FullName: ""})
	alice.send(wire.Envelope{Type: wire.KindRename, Payload: payload})
	errEnv := alice.expect(wire.KindError)
	assert.Equal(t, "empty name", errEnv.Error)
}

func TestPingPong(t *testing.T) {
	srv := newTestServer(t)
	alice := dialPeer(t, srv, "alice")
	alice.send(wire.Envelope{Type: wire.KindPing})
	alice.expect(wire.KindPong)
}

func TestSwitchingChannelsLeavesThePreviousOne(t *testing.T) {
	srv := newTestServer(t)
	alice := dialPeer(t, srv, "alice")
	alice.send(wire.Envelope{Type: wire.KindJoin, Group: "g1"})
	alice.expect(wire.KindChannelState)

	bob := dialPeer(t, srv, "bob")
	bob.send(wire.Envelope{Type: wire.KindJoin, Group: "g1"})
	bob.expect(wire.KindChannelState)
	alice.expect(wire.KindPeerJoined)

	// Bob hops to another group; the first channel sees him leave.
	bob.send(wire.Envelope{Type: wire.KindJoin, Group: "g2"})
	state := bob.expect(wire.KindChannelState)
	var payload wire.ChannelStatePayload
	require.NoError(t, json.Unmarshal(state.Payload, &payload))
	assert.Equal(t, "g2", payload.Group)

	left := alice.expect(wire.KindPeerLeft)
	assert.Equal(t, "bob", left.From)
}
