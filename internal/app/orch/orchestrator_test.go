package orch

import (
	"errors"
	"sync"
	"testing"

	"github.com/rxl895/BrainWave/internal/app"
	"github.com/rxl895/BrainWave/internal/core"
	"github.com/rxl895/BrainWave/internal/domain"
)

type stubConn struct {
	mu     sync.Mutex
	frames []core.Frame
	fail   bool
}

func (s *stubConn) TrySend(f core.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("backpressure")
	}
	s.frames = append(s.frames, f)
	return nil
}

func (s *stubConn) Close() {}

func (s *stubConn) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func newOrch() *Orchestrator {
	return &Orchestrator{
		Registry: app.NewRegistry(),
		Channels: app.NewChannelManager(),
		Policy:   app.SimplePolicy{},
	}
}

func connect(o *Orchestrator, sid core.SessionID) *stubConn {
	conn := &stubConn{}
	u := o.Registry.GetOrCreateUser(sid)
	o.Registry.BindSignal(sid, core.NewParticipantSession(u, conn), nil)
	return conn
}

func TestForwardBetweenChannelMates(t *testing.T) {
	o := newOrch()
	connect(o, "alice")
	bob := connect(o, "bob")
	o.Join("alice", "g1")
	o.Join("bob", "g1")

	if err := o.Forward("alice", "bob", core.Frame("offer")); err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if bob.count() != 1 {
		t.Errorf("bob frames = %d, want 1", bob.count())
	}
}

func TestForwardOutsideChannel(t *testing.T) {
	o := newOrch()
	connect(o, "alice")
	connect(o, "bob")
	o.Join("bob", "g1")

	// Alice never joined a channel.
	if err := o.Forward("alice", "bob", core.Frame("x")); !errors.Is(err, core.ErrNoSuchParticipant) {
		t.Errorf("Forward() error = %v, want ErrNoSuchParticipant", err)
	}

	// Bob targets someone in another channel.
	connect(o, "carol")
	o.Join("carol", "g2")
	if err := o.Forward("bob", "carol", core.Frame("x")); err == nil {
		t.Error("Forward() across channels should fail")
	}
}

func TestJoinMovesSessionBetweenChannels(t *testing.T) {
	o := newOrch()
	connect(o, "alice")
	o.Join("alice", "g1")
	o.Join("alice", "g2")

	if got := o.Channels.GetOrCreate("g1").ParticipantCount(); got != 0 {
		t.Errorf("g1 count = %d, want 0 after hop", got)
	}
	if got := o.Channels.GetOrCreate("g2").ParticipantCount(); got != 1 {
		t.Errorf("g2 count = %d, want 1", got)
	}
	gid, _, ok := o.Registry.GroupOf("alice")
	if !ok || gid != "g2" {
		t.Errorf("GroupOf = %v,%v, want g2", gid, ok)
	}
}

func TestBroadcastKicksSlowConsumer(t *testing.T) {
	o := newOrch()
	connect(o, "alice")
	bob := connect(o, "bob")
	slow := connect(o, "carol")
	slow.fail = true
	o.Join("alice", "g1")
	o.Join("bob", "g1")
	o.Join("carol", "g1")

	o.Broadcast("alice", core.Frame("hello"))

	if bob.count() != 1 {
		t.Errorf("bob frames = %d, want 1", bob.count())
	}
	// The policy kicks the participant that could not keep up.
	if _, _, ok := o.Registry.GroupOf("carol"); ok {
		t.Error("slow consumer still in channel after broadcast")
	}
	if got := o.Channels.GetOrCreate("g1").ParticipantCount(); got != 2 {
		t.Errorf("g1 count = %d, want 2", got)
	}
}

func TestForwardBackpressureKicksTarget(t *testing.T) {
	o := newOrch()
	connect(o, "alice")
	slow := connect(o, "bob")
	slow.fail = true
	o.Join("alice", "g1")
	o.Join("bob", "g1")

	if err := o.Forward("alice", "bob", core.Frame("offer")); err == nil {
		t.Fatal("Forward() to a saturated peer should fail")
	}
	if _, _, ok := o.Registry.GroupOf("bob"); ok {
		t.Error("saturated peer still in channel")
	}
}

func TestEvictChannel(t *testing.T) {
	o := newOrch()
	connect(o, "alice")
	connect(o, "bob")
	o.Join("alice", "g1")
	o.Join("bob", "g1")

	o.EvictChannel(domain.GroupID("g1"))

	if _, _, ok := o.Registry.GroupOf("alice"); ok {
		t.Error("alice still associated after eviction")
	}
	if _, _, ok := o.Registry.GroupOf("bob"); ok {
		t.Error("bob still associated after eviction")
	}
	if got := o.Channels.GetOrCreate("g1").ParticipantCount(); got != 0 {
		t.Errorf("recreated channel count = %d, want 0", got)
	}
}
