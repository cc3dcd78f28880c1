package traits

import "log/slog"

var logger = slog.New(slog.DiscardHandler)

// SetLogger routes the package's debug records (batch rollback, synthetic
// class creation) to l. A nil logger silences them.
func SetLogger(l *slog.Logger) {
	if l == nil {
		logger = slog.New(slog.DiscardHandler)
		return
	}
	logger = l.With("component", "traits")
}
