package application

import "log/slog"

// ModuleName is the value of the "module" log attribute for this engine.
const ModuleName = "governance/proposal-engine"

// ResolveLogger returns logger, or slog.Default when none was wired.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
