// Package config defines the plain value struct consumed at startup by
// main.go, and the small parsing helpers (header lines, allowed-host
// patterns, reload interval grammar) whose semantics spec.md pins down
// precisely. CLI flag parsing itself is an external collaborator of the
// core server: Parse is the only entry point that knows about flags.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Header is one configured response header, injected on every 2xx response.
type Header struct {
	Name  string
	Value string
}

// Config is the fully-parsed, validated startup configuration.
type Config struct {
	Directory         string
	Port              uint16
	AllowedHosts      []string
	Headers           []Header
	DisablePreview    bool
	AllowReloadAPI    bool
	AllowReloadSignal bool
	ReloadInterval    time.Duration
	DisableWatcher    bool
	PoolSize          int
	Verbose           bool
}

// ErrConfig is the sentinel wrapped by every fatal configuration error.
var ErrConfig = fmt.Errorf("configuration error")

// Parse builds a Config from CLI-style arguments (typically os.Args[1:]).
func Parse(args []string) (Config, error) {
	fs := pflag.NewFlagSet("tileserver", pflag.ContinueOnError)

	directory := fs.StringP("directory", "d", "./tiles", "directory to recursively scan for .mbtiles files")
	port := fs.Uint16P("port", "p", 3000, "port to listen on")
	allowedHosts := fs.String("allowed-hosts", "localhost,127.0.0.1,[::1]", "comma-separated list of allowed Host header patterns")
	headers := fs.StringArray("header", nil, `response header to inject on 2xx responses, "name: value" (repeatable)`)
	disablePreview := fs.Bool("disable-preview", false, "disable the /services/<id>/map preview")
	allowReloadAPI := fs.Bool("enable-reload-api", false, "enable POST /reload")
	allowReloadSignal := fs.Bool("enable-reload-signal", false, "reload tilesets on SIGHUP")
	reloadInterval := fs.String("reload-interval", "", "periodic reload interval, e.g. 1h30m (units: s, m, h, d)")
	disableWatcher := fs.Bool("disable-watcher", false, "disable the filesystem-watcher reload trigger")
	poolSize := fs.Int("pool-size", 8, "read-only connections per tileset (values outside [4, 16] fall back to 8)")
	verbose := fs.BoolP("verbose", "v", false, "enable verbose logging")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	cfg := Config{
		Directory:         *directory,
		Port:              *port,
		AllowedHosts:      ParseAllowedHosts(*allowedHosts),
		DisablePreview:    *disablePreview,
		AllowReloadAPI:    *allowReloadAPI,
		AllowReloadSignal: *allowReloadSignal,
		DisableWatcher:    *disableWatcher,
		PoolSize:          *poolSize,
		Verbose:           *verbose,
	}

	for _, h := range *headers {
		parsed, ok := ParseHeader(h)
		if !ok {
			fmt.Fprintf(os.Stderr, "warning: ignoring malformed --header %q\n", h)
			continue
		}
		cfg.Headers = append(cfg.Headers, parsed)
	}

	if *reloadInterval != "" {
		d, err := ParseDuration(*reloadInterval)
		if err != nil {
			return Config{}, fmt.Errorf("%w: invalid --reload-interval: %v", ErrConfig, err)
		}
		cfg.ReloadInterval = d
	}

	return cfg, nil
}

// ParseAllowedHosts splits a comma-separated list and trims whitespace
// around each entry, dropping any that end up empty.
func ParseAllowedHosts(s string) []string {
	var out []string
	for _, h := range strings.Split(s, ",") {
		h = strings.TrimSpace(h)
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

// ParseHeader parses a single "name: value" line into a Header. Lines
// missing a name, a colon, or a value are rejected (ok = false); the
// caller is expected to log a warning and ignore them.
func ParseHeader(line string) (h Header, ok bool) {
	i := strings.Index(line, ":")
	if i <= 0 || i == len(line)-1 {
		return Header{}, false
	}
	name := strings.TrimSpace(line[:i])
	value := strings.TrimSpace(line[i+1:])
	if name == "" || value == "" {
		return Header{}, false
	}
	return Header{Name: name, Value: value}, true
}

// ParseDuration parses the reload-interval grammar: one or more
// <integer><unit> pairs (units: s, m, h, d), concatenated with no
// separator, summed. Example: "1h30m" -> 90 minutes, "2d" -> 48 hours.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	var total time.Duration
	i := 0
	for i < len(s) {
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == start {
			return 0, fmt.Errorf("malformed duration %q: expected digits at position %d", s, start)
		}
		n, err := strconv.ParseInt(s[start:i], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed duration %q: %w", s, err)
		}
		if i >= len(s) {
			return 0, fmt.Errorf("malformed duration %q: missing unit after %d", s, n)
		}

		unit := s[i]
		i++

		var factor time.Duration
		switch unit {
		case 's':
			factor = time.Second
		case 'm':
			factor = time.Minute
		case 'h':
			factor = time.Hour
		case 'd':
			factor = 24 * time.Hour
		default:
			return 0, fmt.Errorf("malformed duration %q: unknown unit %q", s, unit)
		}

		total += time.Duration(n) * factor
	}

	return total, nil
}
