// Package config builds the daemon configuration as an env-default
// struct, then flag.Parse overrides on top. No config file, no viper.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config is the flat configuration struct for the ghostdrawer daemon: HTTP
// address, HID gadget device path, default strategy, paint timing knobs,
// reconnect policy, and observer queue capacity.
//
// The daemon reads only HTTPAddr, HIDDevice and LogDebug at run time, and
// Validate checks the timing and repeat fields. DefaultStrategy, the timing
// and repeat defaults, SkipInitialization, the reconnect fields and
// ObserverQueueCapacity are not passed to the API, session or executor:
// paint and calibration requests carry their own strategy, timing and skip
// flag, the path endpoint falls back to raster_scan, the executor uses
// executor.DefaultReconnectPolicy, and observer queues hold a fixed 64
// messages.
type Config struct {
	HTTPAddr  string
	HIDDevice string
	LogDebug  bool

	DefaultStrategy string
	PressMs         int
	ReleaseMs       int
	WaitMs          int
	Repeats         int

	SkipInitialization bool

	ReconnectInitialDelayMs int
	ReconnectMaxDelayMs     int
	ReconnectMaxAttempts    int

	ObserverQueueCapacity int
}

func Default() Config {
	return Config{
		HTTPAddr:                GetenvDefault("HTTP_ADDR", ":8080"),
		HIDDevice:               GetenvDefault("HID_DEVICE", "/dev/hidg0"),
		LogDebug:                GetenvBoolDefault("LOG_DEBUG", false),
		DefaultStrategy:         GetenvDefault("DEFAULT_STRATEGY", "zig_zag"),
		PressMs:                 GetenvIntDefault("PRESS_MS", 100),
		ReleaseMs:               GetenvIntDefault("RELEASE_MS", 60),
		WaitMs:                  GetenvIntDefault("WAIT_MS", 40),
		Repeats:                 GetenvIntDefault("REPEATS", 1),
		SkipInitialization:      GetenvBoolDefault("SKIP_INITIALIZATION", false),
		ReconnectInitialDelayMs: GetenvIntDefault("RECONNECT_INITIAL_DELAY_MS", 100),
		ReconnectMaxDelayMs:     GetenvIntDefault("RECONNECT_MAX_DELAY_MS", 2000),
		ReconnectMaxAttempts:    GetenvIntDefault("RECONNECT_MAX_ATTEMPTS", 8),
		ObserverQueueCapacity:   GetenvIntDefault("OBSERVER_QUEUE_CAPACITY", 64),
	}
}

func (c Config) Validate() error {
	for name, v := range map[string]int{"press_ms": c.PressMs, "release_ms": c.ReleaseMs, "wait_ms": c.WaitMs} {
		if v < 1 || v > 10000 {
			return fmt.Errorf("%s out of range [1,10000]: %d", name, v)
		}
	}
	if c.Repeats < 1 {
		return fmt.Errorf("repeats must be >= 1: %d", c.Repeats)
	}
	return nil
}

func GetenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func GetenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	var out int
	if _, err := fmt.Sscanf(v, "%d", &out); err != nil {
		return def
	}
	return out
}

func GetenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "1", "true", "yes", "y":
		return true
	case "0", "false", "no", "n":
		return false
	default:
		return def
	}
}
