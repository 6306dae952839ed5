package main

import (
	"context"
	"log/slog"
	"time"
)

// effectDeps are the external systems reducer commands act on.
type effectDeps struct {
	sequencer *Sequencer
	settings  *SettingsStore
}

// runEffect executes a single reducer-emitted Command and emits an observation
// Event via onEvent.
//
// Design rules:
// - This function is allowed to perform I/O.
// - It must never call Reduce() directly; it only emits Events to be reduced by the daemon loop.
// - Sequences run asynchronously; their completion arrives later through the
//   events channel, not through onEvent.
func runEffect(
	ctx context.Context,
	deps effectDeps,
	cmd Command,
	logger *slog.Logger,
	onEvent func(Event),
) {
	if onEvent == nil {
		return
	}

	now := time.Now()

	switch c := cmd.(type) {
	case CmdRunSequence:
		if deps.sequencer == nil {
			onEvent(EffectFailed{Command: cmd, Err: errNoSequencer{}, At: now})
			return
		}
		logger.Info("transition",
			"id", c.Sequence.ID,
			"from", c.Sequence.From,
			"to", c.Sequence.To,
			"duration", c.Sequence.Duration())
		deps.sequencer.Start(ctx, c.Sequence)

	case CmdPublishStateSnapshot:
		// Deliver reducer-produced snapshot to the requester.
		if c.Reply == nil {
			logger.Warn("state snapshot requested with nil reply channel")
			return
		}

		// Never block the daemon loop.
		select {
		case c.Reply <- c.Snapshot:
		default:
			logger.Warn("state snapshot reply channel not ready; dropping snapshot")
		}

	case CmdPersistSettings:
		if deps.settings == nil {
			logger.Debug("no settings file configured; not persisting", "settings", c.Settings)
			return
		}
		if err := deps.settings.Save(c.Settings); err != nil {
			logger.Error("persist settings failed", "error", err, "path", deps.settings.Path())
			onEvent(EffectFailed{Command: cmd, Err: err, At: now})
			return
		}
		logger.Debug("settings persisted", "path", deps.settings.Path(), "prevent_intro_return", c.Settings.PreventIntroReturn)

	default:
		logger.Warn("unknown command type", "command", cmd.String())
		onEvent(EffectFailed{
			Command: cmd,
			Err:     errUnknownCommand{cmd: cmd},
			At:      now,
		})
	}
}

// errNoSequencer indicates the daemon was asked to run a choreography without a sequencer.
type errNoSequencer struct{}

func (errNoSequencer) Error() string { return "no sequencer" }

type errUnknownCommand struct {
	cmd Command
}

func (e errUnknownCommand) Error() string { return "unknown command: " + e.cmd.String() }
