package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	appLog "calstrip/internal/log"
)

// SnapshotConfig controls the periodic headless-browser capture of the UI.
type SnapshotConfig struct {
	// Cron is a cron-style schedule (e.g. "0 * * * *"). Empty disables the
	// scheduled capture; -once still works.
	Cron string `yaml:"cron" json:"cron"`
	// Path is where the PNG is written and served from /preview.png.
	Path string `yaml:"path" json:"path"`
	// Width / Height of the browser viewport in pixels.
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone whose midnight defines a calendar day.
	// Empty means the host's local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of "debug", "info", "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Days is the length of the date strip, starting today.
	Days int `yaml:"days" json:"days"`
	// EventsPerDay is the number of generated events for each day.
	EventsPerDay int `yaml:"events_per_day" json:"events_per_day"`
	// FirstSlotHour / SlotIntervalHours place the generated events in the day.
	FirstSlotHour     int `yaml:"first_slot_hour" json:"first_slot_hour"`
	SlotIntervalHours int `yaml:"slot_interval_hours" json:"slot_interval_hours"`

	// ItemExtent is the size of one strip cell / feed row in layout units.
	ItemExtent int `yaml:"item_extent" json:"item_extent"`
	// Overscan is the number of extra items rendered on each side.
	Overscan int `yaml:"overscan" json:"overscan"`

	// StripViewport / FeedViewport are the initial viewport sizes; hosts
	// report the real size once they know it.
	StripViewport int `yaml:"strip_viewport" json:"strip_viewport"`
	FeedViewport  int `yaml:"feed_viewport" json:"feed_viewport"`

	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen        = "127.0.0.1:8080"
	defaultDays          = 365 * 2
	defaultEventsPerDay  = 5
	defaultFirstSlotHour = 9
	defaultItemExtent    = 100
	defaultOverscan      = 5
	defaultStripViewport = 1200
	defaultFeedViewport  = 800
	defaultSnapshotPath  = "./cache/preview.png"
	defaultSnapshotW     = 1280
	defaultSnapshotH     = 960
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:            defaultListen,
		Timezone:          "",
		LogLevel:          "info",
		Days:              defaultDays,
		EventsPerDay:      defaultEventsPerDay,
		FirstSlotHour:     defaultFirstSlotHour,
		SlotIntervalHours: 1,
		ItemExtent:        defaultItemExtent,
		Overscan:          defaultOverscan,
		StripViewport:     defaultStripViewport,
		FeedViewport:      defaultFeedViewport,
		Snapshot: SnapshotConfig{
			Cron:   "",
			Path:   defaultSnapshotPath,
			Width:  defaultSnapshotW,
			Height: defaultSnapshotH,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
//
// Days and EventsPerDay keep an explicit 0 only when the other is set, so an
// empty calendar can be configured on purpose.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Days < 0 {
		c.Days = 0
	}
	if c.EventsPerDay < 0 {
		c.EventsPerDay = 0
	}
	if c.Days == 0 && c.EventsPerDay == 0 {
		c.Days = defaultDays
		c.EventsPerDay = defaultEventsPerDay
	}
	if c.FirstSlotHour < 0 || c.FirstSlotHour > 23 {
		c.FirstSlotHour = defaultFirstSlotHour
	}
	if c.SlotIntervalHours <= 0 {
		c.SlotIntervalHours = 1
	}
	if c.ItemExtent <= 0 {
		c.ItemExtent = defaultItemExtent
	}
	if c.Overscan < 0 {
		c.Overscan = defaultOverscan
	}
	if c.StripViewport <= 0 {
		c.StripViewport = defaultStripViewport
	}
	if c.FeedViewport <= 0 {
		c.FeedViewport = defaultFeedViewport
	}
	if c.Snapshot.Path == "" {
		c.Snapshot.Path = defaultSnapshotPath
	}
	if c.Snapshot.Width <= 0 {
		c.Snapshot.Width = defaultSnapshotW
	}
	if c.Snapshot.Height <= 0 {
		c.Snapshot.Height = defaultSnapshotH
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".calstrip-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

// Location resolves Timezone, falling back to time.Local when it is empty or
// unknown.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", c.Timezone)
		return time.Local
	}
	return loc
}
