package call

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/rxl895/BrainWave/internal/domain"
	"github.com/rxl895/BrainWave/internal/signal"
)

var ErrNoActiveCall = errors.New("no active call")

// Session owns one call: the local media stream (exclusive, released on every
// exit path), zero or more peer connections and the talk detector.
type Session struct {
	device Device
	signal signal.Sender
	self   string
	group  string
	cfg    webrtc.Configuration

	mu        sync.Mutex
	active    bool
	kind      domain.CallKind
	stream    *Stream
	peers     map[string]*Peer
	muted     bool
	cameraOff bool
	detector  *TalkDetector

	talking atomic.Bool

	onRemoteTrack func(peerID string, track *webrtc.TrackRemote)
}

type Option func(*Session)

// WithICEServers overrides the default STUN set.
func WithICEServers(urls []string) Option {
	return func(s *Session) {
		s.cfg = webrtc.Configuration{ICEServers: []webrtc.ICEServer{{URLs: urls}}}
	}
}

// WithRemoteTrackHandler registers the consumer of incoming media. The
// remote stream is read-only to the consumer.
func WithRemoteTrackHandler(fn func(peerID string, track *webrtc.TrackRemote)) Option {
	return func(s *Session) { s.onRemoteTrack = fn }
}

func NewSession(device Device, sender signal.Sender, self, group string, opts ...Option) *Session {
	s := &Session{
		device: device,
		signal: sender,
		self:   self,
		group:  group,
		cfg: webrtc.Configuration{
			ICEServers: []webrtc.ICEServer{{URLs: []string{"stun:stun.l.google.com:19302"}}},
		},
		peers: make(map[string]*Peer),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start acquires the local stream and joins the call channel. Repeated calls
// while active are no-ops. A denied camera degrades to audio-only; a denied
// microphone fails the start and leaves the session inactive, so a retry
// after the permission is granted starts cleanly.
func (s *Session) Start(ctx context.Context, kind domain.CallKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return nil
	}
	s.kind = kind
	s.muted = false
	s.cameraOff = kind != domain.CallVideo

	wantVideo := kind == domain.CallVideo
	stream, err := s.device.AcquireStream(ctx, true, wantVideo)
	if err != nil && wantVideo {
		log.Warn().Err(err).Str("module", "call").Msg("video denied, degrading to audio only")
		s.cameraOff = true
		stream, err = s.device.AcquireStream(ctx, true, false)
	}
	if err != nil {
		log.Error().Err(err).Str("module", "call").Msg("media acquisition failed")
		if errors.Is(err, domain.ErrMediaAccess) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrMediaAccess, err)
	}
	s.active = true
	s.stream = stream

	if stream.AudioTrack() != nil {
		s.detector = NewTalkDetector(stream.AudioLevel, func(on bool) { s.talking.Store(on) })
		s.detector.Start()
	}

	s.sendEnvelope(signal.KindJoin, "", nil)
	log.Info().Str("module", "call").Str("group", s.group).Str("kind", string(kind)).Msg("call started")
	return nil
}

// AddPeer opens a connection to a participant, attaches the local tracks and
// sends the offer. Returns the existing peer when one is already open.
func (s *Session) AddPeer(id string) (*Peer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil, ErrNoActiveCall
	}
	if p, ok := s.peers[id]; ok && !p.State().Terminal() {
		return p, nil
	}
	p, err := s.newWiredPeerLocked(id)
	if err != nil {
		return nil, err
	}
	offer, err := p.createOffer()
	if err != nil {
		p.Close()
		return nil, err
	}
	s.peers[id] = p
	s.sendEnvelope(signal.KindOffer, id, signal.SDPPayload{SDP: offer.SDP})
	return p, nil
}

func (s *Session) newWiredPeerLocked(id string) (*Peer, error) {
	p, err := newPeer(s.cfg, id)
	if err != nil {
		return nil, err
	}
	p.onICE = func(ci webrtc.ICECandidateInit) {
		payload := signal.CandidatePayload{Candidate: ci.Candidate}
		if ci.SDPMid != nil {
			payload.SDPMid = *ci.SDPMid
		}
		if ci.SDPMLineIndex != nil {
			payload.SDPMLineIndex = *ci.SDPMLineIndex
		}
		s.sendEnvelope(signal.KindICECandidate, id, payload)
	}
	p.onRemoteTrack = func(track *webrtc.TrackRemote) {
		if s.onRemoteTrack != nil {
			s.onRemoteTrack(id, track)
		}
	}
	if err := p.addTracks(s.stream); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// HandleSignal processes one envelope from the signaling channel. Failures
// are logged and absorbed; a broken exchange fails that peer only.
func (s *Session) HandleSignal(env signal.Envelope) {
	switch env.Type {
	case signal.KindOffer:
		s.handleOffer(env)
	case signal.KindAnswer:
		s.handleAnswer(env)
	case signal.KindICECandidate:
		s.handleCandidate(env)
	case signal.KindPeerLeft:
		s.RemovePeer(env.From)
	}
}

func (s *Session) handleOffer(env signal.Envelope) {
	var p signal.SDPPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		log.Error().Err(err).Str("module", "call").Msg("bad offer payload")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	peer, ok := s.peers[env.From]
	if !ok {
		var err error
		peer, err = s.newWiredPeerLocked(env.From)
		if err != nil {
			log.Error().Err(err).Str("module", "call").Str("peer", env.From).Msg("new peer")
			return
		}
		s.peers[env.From] = peer
	}
	answer, err := peer.applyOfferCreateAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: p.SDP})
	if err != nil {
		log.Error().Err(err).Str("module", "call").Str("peer", env.From).Msg("apply offer")
		peer.fail()
		return
	}
	s.sendEnvelope(signal.KindAnswer, env.From, signal.SDPPayload{SDP: answer.SDP})
}

func (s *Session) handleAnswer(env signal.Envelope) {
	var p signal.SDPPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		log.Error().Err(err).Str("module", "call").Msg("bad answer payload")
		return
	}
	peer := s.peer(env.From)
	if peer == nil {
		log.Warn().Str("module", "call").Str("peer", env.From).Msg("answer for unknown peer")
		return
	}
	if err := peer.applyAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: p.SDP}); err != nil {
		log.Error().Err(err).Str("module", "call").Str("peer", env.From).Msg("apply answer")
		peer.fail()
	}
}

func (s *Session) handleCandidate(env signal.Envelope) {
	var p signal.CandidatePayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		log.Error().Err(err).Str("module", "call").Msg("bad candidate payload")
		return
	}
	peer := s.peer(env.From)
	if peer == nil {
		log.Warn().Str("module", "call").Str("peer", env.From).Msg("candidate for unknown peer")
		return
	}
	ci := webrtc.ICECandidateInit{Candidate: p.Candidate}
	if p.SDPMid != "" {
		ci.SDPMid = &p.SDPMid
	}
	ci.SDPMLineIndex = &p.SDPMLineIndex
	if err := peer.addICECandidate(ci); err != nil {
		log.Error().Err(err).Str("module", "call").Str("peer", env.From).Msg("add ice candidate")
	}
}

// ToggleMute flips the mute flag and the audio track's enablement. The
// stream is never re-acquired.
func (s *Session) ToggleMute() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = !s.muted
	if s.stream != nil {
		if t := s.stream.AudioTrack(); t != nil {
			t.SetEnabled(!s.muted)
		}
	}
	return s.muted
}

// ToggleCamera flips the camera flag and the video track's enablement.
func (s *Session) ToggleCamera() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameraOff = !s.cameraOff
	if s.stream != nil {
		if t := s.stream.VideoTrack(); t != nil {
			t.SetEnabled(!s.cameraOff)
		}
	}
	return s.cameraOff
}

// RemovePeer closes and discards one peer, leaving the session running.
func (s *Session) RemovePeer(id string) {
	s.mu.Lock()
	p, ok := s.peers[id]
	delete(s.peers, id)
	s.mu.Unlock()
	if ok {
		p.Close()
	}
}

// End closes every peer, stops the local tracks and the talk detector, and
// leaves the call channel. Safe to call repeatedly and after a partially
// failed Start.
func (s *Session) End() {
	s.mu.Lock()
	wasActive := s.active
	s.active = false
	peers := s.peers
	s.peers = make(map[string]*Peer)
	stream := s.stream
	s.stream = nil
	detector := s.detector
	s.detector = nil
	s.mu.Unlock()

	if detector != nil {
		detector.Stop()
	}
	for _, p := range peers {
		p.Close()
	}
	if stream != nil {
		stream.Close()
	}
	s.talking.Store(false)
	if wasActive {
		s.sendEnvelope(signal.KindLeave, "", nil)
		log.Info().Str("module", "call").Str("group", s.group).Msg("call ended")
	}
}

func (s *Session) sendEnvelope(kind signal.Kind, to string, payload any) {
	env, err := signal.NewEnvelope(kind, to, s.group, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "call").Msg("marshal envelope")
		return
	}
	if err := s.signal.Send(env); err != nil {
		log.Error().Err(err).Str("module", "call").Str("type", string(kind)).Msg("signal send")
	}
}

func (s *Session) peer(id string) *Peer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peers[id]
}

func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Session) Kind() domain.CallKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kind
}

func (s *Session) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

func (s *Session) CameraOff() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cameraOff
}

func (s *Session) Talking() bool { return s.talking.Load() }

// Stream returns the local media handle, nil when acquisition failed.
func (s *Session) Stream() *Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

// PeerStates snapshots the negotiation state per participant.
func (s *Session) PeerStates() map[string]domain.PeerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.PeerState, len(s.peers))
	for id, p := range s.peers {
		out[id] = p.State()
	}
	return out
}

// TalkDetectorRunning reports whether the polling loop is live.
func (s *Session) TalkDetectorRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detector != nil && s.detector.Running()
}
