package tuner

import (
	"sync"
	"time"

	microtonalist "github.com/calinburloiu/microtonalist-sub001"
)

type (
	// Broker is the centralized message broker of a tuning session. The
	// tracks report requested tuning changes to the service through one
	// shared channel; the service fans the resulting tunings out through one
	// channel per track, so each track sees the updates in order without ever
	// blocking another track.
	//
	// For closing goroutines, the broker has two channels per goroutine:
	// CloseXXX and FinishedXXX. CloseXXX has a capacity of 1, so a closure
	// request can always be sent without blocking; if the channel is full,
	// someone else already requested it and dropping the message is fine.
	// FinishedXXX is never sent to, only closed, so "<-FinishedXXX" waits
	// until the goroutine is done cleaning up.
	Broker struct {
		ToService chan TuningChange

		CloseService    chan struct{}
		FinishedService chan struct{}

		mutex    sync.Mutex
		toTracks []chan MsgToTrack
	}

	// MsgToTrack carries a tuning update from the service to a track. Index
	// is the position of the tuning in the session sequence; Reset asks the
	// track to reinitialize its instrument before applying the tuning.
	MsgToTrack struct {
		Index  int
		Tuning microtonalist.Tuning
		Reset  bool
	}
)

func NewBroker() *Broker {
	return &Broker{
		ToService:       make(chan TuningChange, 1024),
		CloseService:    make(chan struct{}, 1),
		FinishedService: make(chan struct{}),
	}
}

// RegisterTrack returns a fresh channel on which the track will receive its
// tuning updates. Register all tracks before starting the service.
func (b *Broker) RegisterTrack() <-chan MsgToTrack {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	c := make(chan MsgToTrack, 64)
	b.toTracks = append(b.toTracks, c)
	return c
}

// PublishTuning delivers the message to every registered track, in
// registration order. Sends block so no track ever misses an update; the
// per-track buffers make that blocking unlikely in practice.
func (b *Broker) PublishTuning(msg MsgToTrack) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for _, c := range b.toTracks {
		c <- msg
	}
}

// CloseTracks closes all per-track channels, releasing the track goroutines
// after they drain their buffers.
func (b *Broker) CloseTracks() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for _, c := range b.toTracks {
		close(c)
	}
	b.toTracks = nil
}

// TrySend is a helper function to send a value to a channel if it is not full.
// It is guaranteed to be non-blocking. Returns true if the value was sent,
// false otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive is a helper function to block until a value is received from
// a channel, or timing out after t. ok is false if the timeout occurred or if
// the channel is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
