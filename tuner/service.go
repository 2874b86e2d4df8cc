package tuner

import (
	"log/slog"

	microtonalist "github.com/calinburloiu/microtonalist-sub001"
)

// TuningService owns the current position in the tuning sequence. It is the
// single consumer of the broker's ToService channel, so all tuning changes
// from all tracks are serialized through one goroutine and every track sees
// the same sequence of tunings.
type TuningService struct {
	broker  *Broker
	tunings []microtonalist.Tuning
	index   int
	logger  *slog.Logger
}

// NewTuningService creates a service positioned at the first tuning. The
// tuning sequence must not be empty.
func NewTuningService(broker *Broker, tunings []microtonalist.Tuning, logger *slog.Logger) *TuningService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TuningService{
		broker:  broker,
		tunings: tunings,
		logger:  logger,
	}
}

// Index returns the current position in the tuning sequence.
func (s *TuningService) Index() int { return s.index }

// Tuning returns the tuning at the current position.
func (s *TuningService) Tuning() microtonalist.Tuning { return s.tunings[s.index] }

// Run consumes tuning changes until the ToService channel is closed or a
// closure is requested, publishing the initial tuning with a reset first.
// Meant to be run as "go service.Run()"; FinishedService is closed on return.
func (s *TuningService) Run() {
	defer close(s.broker.FinishedService)
	s.publish(true)
	for {
		select {
		case <-s.broker.CloseService:
			return
		case change, ok := <-s.broker.ToService:
			if !ok {
				return
			}
			s.ChangeTuning(change)
		}
	}
}

// ChangeTuning moves the current position according to the change and
// publishes the new tuning to all tracks. Previous and next wrap around the
// sequence; an absolute index is clamped to the valid range. Nothing is
// published when the position does not move.
func (s *TuningService) ChangeTuning(change TuningChange) {
	n := len(s.tunings)
	next := s.index
	switch change.Type {
	case PreviousTuningChange:
		next = (s.index - 1 + n) % n
	case NextTuningChange:
		next = (s.index + 1) % n
	case IndexTuningChange:
		next = change.Index
		if next < 0 {
			next = 0
		} else if next >= n {
			next = n - 1
		}
	default:
		return
	}
	if next == s.index {
		return
	}
	s.index = next
	s.logger.Info("tuning changed",
		"index", s.index,
		"name", s.tunings[s.index].Name)
	s.publish(false)
}

func (s *TuningService) publish(reset bool) {
	s.broker.PublishTuning(MsgToTrack{
		Index:  s.index,
		Tuning: s.tunings[s.index],
		Reset:  reset,
	})
}
