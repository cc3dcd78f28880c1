package configure

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/traitkit/pkg/traits"
)

// Reloader re-applies a viper configuration to a set of objects whenever
// the file changes. Trait objects are single-writer, so every access from
// the program must go through Do while the reloader is watching.
type Reloader struct {
	mu     sync.Mutex
	v      *viper.Viper
	objs   []*traits.Object
	logger *slog.Logger
}

// NewReloader returns a reloader for objs. A nil logger uses slog.Default.
func NewReloader(v *viper.Viper, logger *slog.Logger, objs ...*traits.Object) *Reloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reloader{
		v:      v,
		objs:   objs,
		logger: logger.With(slog.String("component", "configure")),
	}
}

// Do runs fn while holding the reloader's lock.
func (r *Reloader) Do(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn()
}

// Handle applies the current configuration after a file event. A section
// that fails validation is rolled back and the error is returned; sections
// applied before it keep their new values.
func (r *Reloader) Handle(e fsnotify.Event) error {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return nil
	}
	return r.Do(func() error {
		if err := ApplyViper(r.v, r.objs...); err != nil {
			r.logger.Warn("config reload rejected", "file", e.Name, "error", err)
			return fmt.Errorf("reload %s: %w", e.Name, err)
		}
		r.logger.Info("config reloaded", "file", e.Name)
		return nil
	})
}

// Watch starts watching the viper config file. report receives the result
// of every reload and may be nil.
func (r *Reloader) Watch(report func(error)) {
	r.v.OnConfigChange(func(e fsnotify.Event) {
		err := r.Handle(e)
		if report != nil {
			report(err)
		}
	})
	r.v.WatchConfig()
}
