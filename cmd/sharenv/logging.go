package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/zoobzio/capitan"

	"github.com/zoobzio/sharenv"
)

func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "sharenv",
	})
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

// bridgeEvents forwards sharenv signals to logger.
func bridgeEvents(logger *log.Logger) {
	capitan.Hook(sharenv.CoordinatorStarted, func(_ context.Context, e *capitan.Event) {
		debounce, _ := sharenv.KeyDebounce.From(e)
		poll, _ := sharenv.KeyPollInterval.From(e)
		watcher, _ := sharenv.KeyWatcherType.From(e)
		logger.Info("coordinator started", "debounce", debounce, "poll_interval", poll, "watcher", watcher)
	})

	capitan.Hook(sharenv.CoordinatorStopped, func(_ context.Context, e *capitan.Event) {
		state, _ := sharenv.KeyState.From(e)
		logger.Info("coordinator stopped", "state", state)
	})

	capitan.Hook(sharenv.CoordinatorStateChanged, func(_ context.Context, e *capitan.Event) {
		from, _ := sharenv.KeyOldState.From(e)
		to, _ := sharenv.KeyNewState.From(e)
		logger.Info("coordinator state changed", "from", from, "to", to)
	})

	capitan.Hook(sharenv.CoordinatorWatchFailed, func(_ context.Context, e *capitan.Event) {
		errMsg, _ := sharenv.KeyError.From(e)
		poll, _ := sharenv.KeyPollInterval.From(e)
		logger.Warn("watch failed, polling", "err", errMsg, "poll_interval", poll)
	})

	capitan.Hook(sharenv.CoordinatorChangeReceived, func(_ context.Context, e *capitan.Event) {
		path, _ := sharenv.KeyPath.From(e)
		logger.Debug("change received", "path", path)
	})

	capitan.Hook(sharenv.CoordinatorReloadFailed, func(_ context.Context, e *capitan.Event) {
		errMsg, _ := sharenv.KeyError.From(e)
		logger.Error("reload failed, keeping previous snapshot", "err", errMsg)
	})

	capitan.Hook(sharenv.CoordinatorReloadSucceeded, func(_ context.Context, e *capitan.Event) {
		version, _ := sharenv.KeyVersion.From(e)
		variables, _ := sharenv.KeyVariables.From(e)
		duration, _ := sharenv.KeyDuration.From(e)
		logger.Info("reloaded", "version", version, "variables", variables, "duration", duration)
	})

	capitan.Hook(sharenv.CoordinatorReloadUnchanged, func(_ context.Context, _ *capitan.Event) {
		logger.Debug("source unchanged")
	})

	capitan.Hook(sharenv.StoreReplaced, func(_ context.Context, e *capitan.Event) {
		added, _ := sharenv.KeyAdded.From(e)
		removed, _ := sharenv.KeyRemoved.From(e)
		clamped, _ := sharenv.KeyClamped.From(e)
		logger.Debug("snapshot replaced", "added", added, "removed", removed, "clamped", clamped)
	})

	capitan.Hook(sharenv.LoaderEntrySkipped, func(_ context.Context, e *capitan.Event) {
		entry, _ := sharenv.KeyEntry.From(e)
		reason, _ := sharenv.KeyReason.From(e)
		errMsg, _ := sharenv.KeyError.From(e)
		logger.Warn("entry skipped", "entry", entry, "reason", reason, "err", errMsg)
	})
}
