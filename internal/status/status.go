package status

import (
	"sync"
	"time"
)

// LED selects the lamp's base animation.
type LED int

const (
	LEDUpdate LED = iota // re-render channels from the registry
	LEDHeartbeat
	LEDFail
)

func (l LED) String() string {
	switch l {
	case LEDHeartbeat:
		return "heartbeat"
	case LEDFail:
		return "fail"
	default:
		return "update"
	}
}

// Noise selects a one-shot audio cue.
type Noise int

const (
	NoiseAbort Noise = iota
	NoiseOnline
	NoiseFail
	NoiseTick
)

func (n Noise) String() string {
	switch n {
	case NoiseOnline:
		return "online"
	case NoiseFail:
		return "fail"
	case NoiseTick:
		return "tick"
	default:
		return "abort"
	}
}

// Event is one played noise with its arrival time.
type Event struct {
	Noise Noise
	At    time.Time
}

// maxEvents bounds the noise history kept for the UI.
const maxEvents = 32

// Snapshot represents the board at a point in time. Seq increments on every
// Play, so readers can detect cues they have not yet rendered.
type Snapshot struct {
	LED    LED
	Events []Event
	Seq    uint64
}

// Board stands in for the lamp's LED driver and buzzer. Signals are
// fire-and-forget: the supervisor posts them, the UI renders whatever the
// latest snapshot holds. The zero value is ready to use and starts in the
// LEDUpdate mode.
type Board struct {
	mu     sync.RWMutex
	led    LED
	events []Event
	seq    uint64
}

// SetLED switches the base animation.
func (b *Board) SetLED(led LED) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.led = led
}

// Play records a one-shot noise cue.
func (b *Board) Play(noise Noise) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, Event{Noise: noise, At: time.Now()})
	if len(b.events) > maxEvents {
		b.events = b.events[len(b.events)-maxEvents:]
	}
	b.seq++
}

// Snapshot returns a copy of the current board state.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := Snapshot{LED: b.led, Seq: b.seq}
	if len(b.events) > 0 {
		snap.Events = make([]Event, len(b.events))
		copy(snap.Events, b.events)
	}
	return snap
}
