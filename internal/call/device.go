// Package call owns the local media stream and the per-peer WebRTC
// negotiation of one call session.
package call

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"
)

type TrackKind string

const (
	TrackAudio TrackKind = "audio"
	TrackVideo TrackKind = "video"
)

// Device abstracts the platform media API. Implementations acquire capture
// resources; the session releases them through Stream.Close on every exit
// path.
type Device interface {
	// AcquireStream opens the requested tracks. Implementations should fail
	// with a domain.ErrMediaAccess-wrapped error when permission is denied.
	AcquireStream(ctx context.Context, audio, video bool) (*Stream, error)
}

// LocalTrack pairs a pion local track with an enabled flag. Disabling a track
// mutes it on every outgoing connection without recreating the stream: the
// device's sample pump must consult Enabled and write silence/black while
// false.
type LocalTrack struct {
	kind    TrackKind
	rtp     webrtc.TrackLocal
	enabled atomic.Bool
	level   func() float64 // audio amplitude 0..1, nil for video
	stop    func()

	stopOnce sync.Once
}

// NewLocalTrack wraps a pion track. level may be nil; stop releases the
// underlying capture resource.
func NewLocalTrack(kind TrackKind, rtp webrtc.TrackLocal, level func() float64, stop func()) *LocalTrack {
	t := &LocalTrack{kind: kind, rtp: rtp, level: level, stop: stop}
	t.enabled.Store(true)
	return t
}

func (t *LocalTrack) Kind() TrackKind    { return t.kind }
func (t *LocalTrack) Enabled() bool      { return t.enabled.Load() }
func (t *LocalTrack) SetEnabled(on bool) { t.enabled.Store(on) }

// Level reports the current audio amplitude, 0 for video tracks.
func (t *LocalTrack) Level() float64 {
	if t.level == nil {
		return 0
	}
	return t.level()
}

func (t *LocalTrack) Close() {
	t.stopOnce.Do(func() {
		if t.stop != nil {
			t.stop()
		}
	})
}

// Stream is the exclusively-owned local media handle: at most one per
// session.
type Stream struct {
	tracks []*LocalTrack
}

func NewStream(tracks ...*LocalTrack) *Stream {
	return &Stream{tracks: tracks}
}

func (s *Stream) Tracks() []*LocalTrack { return s.tracks }

func (s *Stream) track(kind TrackKind) *LocalTrack {
	for _, t := range s.tracks {
		if t.kind == kind {
			return t
		}
	}
	return nil
}

func (s *Stream) AudioTrack() *LocalTrack { return s.track(TrackAudio) }
func (s *Stream) VideoTrack() *LocalTrack { return s.track(TrackVideo) }

// AudioLevel samples the audio track, 0 when absent or muted.
func (s *Stream) AudioLevel() float64 {
	t := s.AudioTrack()
	if t == nil || !t.Enabled() {
		return 0
	}
	return t.Level()
}

// Close stops every track. Safe to call more than once.
func (s *Stream) Close() {
	for _, t := range s.tracks {
		t.Close()
	}
}
