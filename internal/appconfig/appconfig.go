// Package appconfig declares the configurable classes traitctl operates on:
// an Application base and the Server and Worker components built on it.
package appconfig

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/mesh-intelligence/traitkit/pkg/traits"
)

// Log levels accepted by Application.log_level.
var logLevels = []string{"debug", "info", "warn", "error"}

// Application holds the settings every component shares.
var Application = traits.NewClass("Application").
	Trait(
		traits.Declare("name", traits.Text(), traits.Config(), traits.WithDefault("traitctl"),
			traits.Help("Name reported in logs.")),
		traits.Declare("log_level", traits.CaselessEnum(logLevels...), traits.Config(), traits.WithDefault("info"),
			traits.Help("Minimum level of emitted log records.")),
		traits.Declare("debug", traits.CBool(), traits.Config(),
			traits.Help("Shortcut for log_level=debug.")),
		traits.Declare("tags", traits.CSet(traits.Text()), traits.Config(),
			traits.Help("Free-form labels.")),
	).
	Observe(func(c traits.ChangeRecord) error {
		if on, _ := c.New.(bool); on {
			return c.Owner.Set("log_level", "debug")
		}
		return nil
	}, []string{"debug"}, traits.KindChange).
	MustBuild()

// Server configures the network front end.
var Server = traits.NewClass("Server", Application).
	Trait(
		traits.Declare("host", traits.Constrained(traits.Text(), "hostname|ip"), traits.Config(),
			traits.WithDefault("localhost"), traits.Help("Host name or address to listen on.")),
		traits.Declare("port", traits.Int().Min(0).Max(65535), traits.Config(), traits.WithDefault(8080),
			traits.Help("TCP port to listen on.")),
		traits.Declare("bind", traits.TCPAddress(),
			traits.Help("Listen address, derived from host and port unless set.")),
		traits.Declare("url", traits.Text(), traits.ReadOnly(),
			traits.Help("Public URL, fixed once computed.")),
		traits.Declare("base_path", traits.Text(), traits.Config(), traits.WithDefault("/"),
			traits.Help("Path prefix for every route.")),
		traits.Declare("tls_cert", traits.Text(), traits.Config(), traits.AllowNone(), traits.WithDefault(nil),
			traits.Help("Certificate file; None disables TLS.")),
		traits.Declare("timeout", traits.CFloat().Min(0), traits.Config(), traits.WithDefault(30.0),
			traits.Help("Request timeout in seconds.")),
		traits.Declare("routes", traits.Dict(traits.Text()), traits.Config(),
			traits.Help("Route name to upstream address.")),
		traits.Declare("allow", traits.Regexp(), traits.Config(), traits.WithDefault(".*"),
			traits.Help("Pattern of accepted client names.")),
	).
	Default("bind", func(o *traits.Object) (any, error) {
		host, err := o.Get("host")
		if err != nil {
			return nil, err
		}
		port, err := o.Get("port")
		if err != nil {
			return nil, err
		}
		return traits.TCPAddr{Host: host.(string), Port: int(port.(int64))}, nil
	}).
	Default("url", func(o *traits.Object) (any, error) {
		bind, err := o.Get("bind")
		if err != nil {
			return nil, err
		}
		cert, err := o.Get("tls_cert")
		if err != nil {
			return nil, err
		}
		base, err := o.Get("base_path")
		if err != nil {
			return nil, err
		}
		scheme := "http"
		if cert != nil {
			scheme = "https"
		}
		return fmt.Sprintf("%s://%s%s", scheme, bind.(traits.TCPAddr), base), nil
	}).
	Validate(func(p traits.Proposal) (any, error) {
		path := p.Value.(string)
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return path, nil
	}, "base_path").
	Validate(func(p traits.Proposal) (any, error) {
		values := map[string]any{p.Trait.Name(): p.Value}
		for _, name := range []string{"port", "tls_cert"} {
			if _, ok := values[name]; ok {
				continue
			}
			v, err := p.Owner.Get(name)
			if err != nil {
				return nil, err
			}
			values[name] = v
		}
		if values["tls_cert"] != nil && values["port"].(int64) == 80 {
			return nil, ErrTLSOnPlainPort
		}
		return p.Value, nil
	}, "port", "tls_cert").
	MustBuild()

// ErrTLSOnPlainPort rejects a certificate on port 80.
var ErrTLSOnPlainPort = errors.New("tls_cert cannot be used with port 80")

// Worker configures the background job runner.
var Worker = traits.NewClass("Worker", Application).
	Trait(
		traits.Declare("workers", traits.Constrained(traits.CInt(), "gte=1,lte=64"), traits.Config(),
			traits.Help("Number of concurrent workers; defaults to the CPU count.")),
		traits.Declare("queue", traits.FuzzyEnum("fifo", "lifo", "priority"), traits.Config(), traits.WithDefault("fifo"),
			traits.Help("Queue discipline; any unique prefix is accepted.")),
		traits.Declare("retry", traits.Tuple(traits.Int().Min(0), traits.Float().Min(0)), traits.Config(),
			traits.WithDefault([]any{3, 0.5}), traits.Help("Attempts and backoff seconds.")),
		traits.Declare("batch", traits.Union(traits.Int().Min(1), traits.Enum("auto")), traits.Config(),
			traits.WithDefault("auto"), traits.Help("Items per batch, or auto.")),
		traits.Declare("plugins", traits.List(traits.Text()).Len(0, 16), traits.Config(),
			traits.Help("Plugins to load, in order.")),
		traits.Declare("handler", traits.Instance[slog.Handler](), traits.AllowNone(),
			traits.Help("Log handler installed by the host program.")),
	).
	Default("workers", func(*traits.Object) (any, error) {
		return min(runtime.NumCPU(), 64), nil
	}).
	MustBuild()

// Classes returns the classes in the order traitctl lists them.
func Classes() []*traits.Class {
	return []*traits.Class{Application, Server, Worker}
}

// Lookup finds a class by name, ignoring case.
func Lookup(name string) (*traits.Class, bool) {
	for _, c := range Classes() {
		if strings.EqualFold(c.Name(), name) {
			return c, true
		}
	}
	return nil, false
}

// NewObjects creates one fresh object per class.
func NewObjects() ([]*traits.Object, error) {
	out := make([]*traits.Object, 0, len(Classes()))
	for _, c := range Classes() {
		o, err := c.New(nil)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// LogLevel maps the log_level trait of an Application object to slog.
func LogLevel(o *traits.Object) (slog.Level, error) {
	v, err := o.Get("log_level")
	if err != nil {
		return 0, err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v.(string))); err != nil {
		return 0, err
	}
	return level, nil
}
