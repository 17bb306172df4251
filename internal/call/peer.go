package call

import (
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/rxl895/BrainWave/internal/domain"
)

// Peer is one remote participant's connection. Negotiation walks
// new → offer-sent → answer-received → connected → closed, with failed as an
// absorbing state; closing a peer releases only that peer's resources.
type Peer struct {
	id string
	pc *webrtc.PeerConnection

	mu    sync.Mutex
	state domain.PeerState

	onICE         func(webrtc.ICECandidateInit)
	onRemoteTrack func(*webrtc.TrackRemote)
	onClosed      func()
}

func newPeer(cfg webrtc.Configuration, id string) (*Peer, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	p := &Peer{id: id, pc: pc, state: domain.PeerNew}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		p.mu.Lock()
		fn := p.onICE
		p.mu.Unlock()
		if fn != nil {
			fn(c.ToJSON())
		}
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		log.Info().Str("module", "call.peer").Str("peer", id).Str("kind", track.Kind().String()).Msg("remote track")
		p.mu.Lock()
		fn := p.onRemoteTrack
		p.mu.Unlock()
		if fn != nil {
			fn(track)
		}
	})

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "call.peer").Str("peer", id).Str("state", s.String()).Msg("peer state")
		switch s {
		case webrtc.PeerConnectionStateConnected:
			p.transition(domain.PeerConnected)
		case webrtc.PeerConnectionStateFailed:
			p.fail()
		case webrtc.PeerConnectionStateClosed:
			p.transition(domain.PeerClosed)
		}
	})

	return p, nil
}

func (p *Peer) ID() string { return p.id }

func (p *Peer) State() domain.PeerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// transition moves to next unless the current state is terminal.
func (p *Peer) transition(next domain.PeerState) bool {
	p.mu.Lock()
	if p.state.Terminal() {
		p.mu.Unlock()
		return false
	}
	p.state = next
	var closed func()
	if next.Terminal() {
		closed = p.onClosed
	}
	p.mu.Unlock()
	if closed != nil {
		closed()
	}
	return true
}

// fail enters the absorbing failed state and releases the peer's resources.
func (p *Peer) fail() {
	if p.transition(domain.PeerFailed) {
		_ = p.pc.Close()
	}
}

func (p *Peer) addTracks(stream *Stream) error {
	if stream == nil {
		return nil
	}
	for _, t := range stream.Tracks() {
		if _, err := p.pc.AddTrack(t.rtp); err != nil {
			return err
		}
	}
	return nil
}

// createOffer produces and installs the local description. Candidates
// trickle through the OnICECandidate callback.
func (p *Peer) createOffer() (webrtc.SessionDescription, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	p.transition(domain.PeerOfferSent)
	return offer, nil
}

// applyOfferCreateAnswer is the callee side of negotiation.
func (p *Peer) applyOfferCreateAnswer(offer webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	if err := p.pc.SetRemoteDescription(offer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	// Both descriptions are installed; negotiation now waits on connectivity.
	p.transition(domain.PeerAnswerReceived)
	return answer, nil
}

// applyAnswer completes the caller side.
func (p *Peer) applyAnswer(answer webrtc.SessionDescription) error {
	if err := p.pc.SetRemoteDescription(answer); err != nil {
		return err
	}
	p.transition(domain.PeerAnswerReceived)
	return nil
}

func (p *Peer) addICECandidate(ci webrtc.ICECandidateInit) error {
	return p.pc.AddICECandidate(ci)
}

// Close releases this peer only, never the session's local stream.
func (p *Peer) Close() {
	if p.transition(domain.PeerClosed) {
		if err := p.pc.Close(); err != nil {
			log.Error().Err(err).Str("module", "call.peer").Str("peer", p.id).Msg("close error")
		}
	}
}
