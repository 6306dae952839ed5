package main

import (
	"context"
	"log/slog"
	"sync"
)

// Sequencer plays choreography sequences: it waits each step's delay on its
// Clock, then emits the step's broadcast. When the last step has run it reports
// SequenceCompleted so the reducer can release the transition mutex.
//
// Sequences are never cancelled once started, except by daemon shutdown.
type Sequencer struct {
	clock  Clock
	emit   func(Broadcast)
	done   func(SequenceCompleted)
	logger *slog.Logger

	wg sync.WaitGroup
}

// NewSequencer constructs a sequencer. emit and done may be called from the
// sequencer's goroutines and must be safe for concurrent use.
func NewSequencer(clock Clock, emit func(Broadcast), done func(SequenceCompleted), logger *slog.Logger) *Sequencer {
	if clock == nil {
		clock = realClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequencer{
		clock:  clock,
		emit:   emit,
		done:   done,
		logger: logger,
	}
}

// Start runs seq in its own goroutine.
func (s *Sequencer) Start(ctx context.Context, seq Sequence) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Run(ctx, seq); err != nil {
			s.logger.Debug("sequence aborted", "id", seq.ID, "error", err)
		}
	}()
}

// Run plays seq synchronously. It returns ctx.Err() if ctx ends first, in
// which case no completion is reported.
func (s *Sequencer) Run(ctx context.Context, seq Sequence) error {
	s.logger.Debug("sequence starting", "id", seq.ID, "from", seq.From, "to", seq.To, "steps", len(seq.Steps), "duration", seq.Duration())

	for _, st := range seq.Steps {
		if st.Delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.clock.After(st.Delay):
			}
		}
		if st.Broadcast != nil && s.emit != nil {
			s.emit(st.Broadcast)
		}
	}

	if s.done != nil {
		s.done(SequenceCompleted{ID: seq.ID, At: s.clock.Now()})
	}
	return nil
}

// Wait blocks until every started sequence has returned.
func (s *Sequencer) Wait() { s.wg.Wait() }
