package main

import (
	"context"
	"log/slog"
	"time"
)

// ============================================================================
// Central Daemon Loop - Reducer-driven navigation controller
// ============================================================================
//
// Design rules enforced here:
//   - The reducer performs no I/O and computes: next state + commands + broadcasts.
//   - The daemon loop is the only place that executes side effects and the only
//     owner of NavState.
//   - Observations are turned into Events and fed back into the reducer.
//   - Explicit event and command queues (no nested/re-entrant execution).
//
// ============================================================================

// runDaemon is the main daemon loop that:
//   - Receives Events from the page, IPC and kiosk input
//   - Emits Tick events on a fixed cadence (drives the debounced scroll sync)
//   - Reduces events into (state, commands, broadcasts)
//   - Publishes broadcasts and executes commands
//
// Shutdown semantics:
//   - Exits when ctx is canceled
//   - Exits cleanly when the events channel is closed
func runDaemon(
	ctx context.Context,
	events <-chan Event,
	state *NavState,
	cfg NavConfig,
	deps effectDeps,
	out chan<- Broadcast,
	updateHz int,
	logger *slog.Logger,
) {
	if state == nil {
		logger.Error("daemon state is nil")
		return
	}
	if updateHz <= 0 {
		updateHz = defaultUpdateHz
	}

	ticker := time.NewTicker(time.Second / time.Duration(updateHz))
	defer ticker.Stop()

	lastTick := time.Now()

	var eventQueue []Event
	var cmdQueue []Command

	enqueueEvent := func(ev Event) {
		eventQueue = append(eventQueue, ev)
	}

	flushEvents := func() {
		for len(eventQueue) > 0 {
			ev := eventQueue[0]
			eventQueue = eventQueue[1:]

			prevView := state.CurrentView
			rr := Reduce(state, ev, cfg)
			if rr.State != nil {
				state = rr.State
			}
			if rr.Err != nil {
				logger.Error("event rejected", "event", eventName(ev), "error", rr.Err)
			}
			if state.CurrentView != prevView {
				logger.Info("view changed", "from", prevView, "to", state.CurrentView, "transitioning", state.Transitioning)
			}
			for _, b := range rr.Broadcasts {
				publishBroadcast(out, b, logger)
			}
			cmdQueue = append(cmdQueue, rr.Commands...)
		}
	}

	flushCommands := func() {
		for len(cmdQueue) > 0 {
			cmd := cmdQueue[0]
			cmdQueue = cmdQueue[1:]

			runEffect(ctx, deps, cmd, logger, enqueueEvent)
			flushEvents()
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("daemon stopping (context canceled)")
			return

		case ev, ok := <-events:
			if !ok {
				logger.Info("daemon stopping (events channel closed)")
				return
			}
			enqueueEvent(TimedEvent{Event: ev, At: time.Now()})
			flushEvents()
			flushCommands()

		case now := <-ticker.C:
			dt := now.Sub(lastTick).Seconds()
			lastTick = now
			enqueueEvent(Tick{Now: now, Dt: dt})
			flushEvents()
			flushCommands()
		}
	}
}

// publishBroadcast hands b to the WS broadcaster without ever blocking the
// caller. It is safe for concurrent use.
func publishBroadcast(out chan<- Broadcast, b Broadcast, logger *slog.Logger) {
	if out == nil {
		return
	}
	select {
	case out <- b:
		logger.Debug("broadcast", "msg", describeBroadcast(b))
	default:
		logger.Warn("broadcast queue full, dropping message", "msg", describeBroadcast(b))
	}
}

func eventName(ev Event) string {
	if te, ok := ev.(TimedEvent); ok {
		ev = te.Event
	}
	switch ev.(type) {
	case LayoutReported:
		return "layout"
	case WheelInput:
		return "wheel"
	case TouchMove:
		return "touch_move"
	case ScrollReported:
		return "scroll"
	default:
		return "other"
	}
}
