package call

import (
	"sync"
	"time"
)

const (
	// talkInterval approximates a frame clock when none is available.
	talkInterval = 16 * time.Millisecond
	// talkWindow is how many samples the running average spans.
	talkWindow = 8
	// talkThreshold is the average amplitude that counts as speech.
	talkThreshold = 0.1
)

// TalkDetector polls an audio level on a fixed cadence and reports when the
// short-window average crosses the threshold. Its loop is bounded to the call
// session lifetime; Stop must run on every session exit path.
type TalkDetector struct {
	level    func() float64
	onChange func(bool)

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

func NewTalkDetector(level func() float64, onChange func(bool)) *TalkDetector {
	return &TalkDetector{level: level, onChange: onChange}
}

func (d *TalkDetector) Start() {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.done = make(chan struct{})
	done := d.done
	d.mu.Unlock()

	go d.loop(done)
}

func (d *TalkDetector) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.done)
	d.mu.Unlock()
}

func (d *TalkDetector) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func (d *TalkDetector) loop(done chan struct{}) {
	ticker := time.NewTicker(talkInterval)
	defer ticker.Stop()

	window := make([]float64, 0, talkWindow)
	talking := false
	for {
		select {
		case <-done:
			if talking && d.onChange != nil {
				d.onChange(false)
			}
			return
		case <-ticker.C:
			window = append(window, d.level())
			if len(window) > talkWindow {
				window = window[1:]
			}
			var sum float64
			for _, v := range window {
				sum += v
			}
			now := sum/float64(len(window)) > talkThreshold
			if now != talking {
				talking = now
				if d.onChange != nil {
					d.onChange(now)
				}
			}
		}
	}
}
