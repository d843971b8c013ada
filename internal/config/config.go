// Package config resolves the emulator's tunable surface from, in order of
// precedence: command-line flags, CHIP8VM_* environment variables, a config
// file, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// DefaultClockHz is the default instruction rate. Not fixed by the
	// original hardware; a tunable.
	DefaultClockHz = 700

	configName = ".chip8vm"
	envPrefix  = "chip8vm"
)

// Config is the full tunable surface: instruction rate, the four documented
// interpreter quirks and the display palette.
type Config struct {
	ClockHz int

	ShiftQuirk     bool
	LoadStoreQuirk bool
	JumpQuirk      bool
	ClipSprites    bool

	Foreground uint32
	Background uint32
}

var keys = []string{
	"clock",
	"shift-quirk",
	"load-store-quirk",
	"jump-quirk",
	"clip-sprites",
	"foreground",
	"background",
}

// Load reads the config file (an explicit path, or $HOME/.chip8vm.yaml if
// present), the environment and the given flag set. A nil flag set skips
// flag binding.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	v.SetDefault("clock", DefaultClockHz)
	v.SetDefault("shift-quirk", true)
	v.SetDefault("load-store-quirk", true)
	v.SetDefault("jump-quirk", false)
	v.SetDefault("clip-sprites", false)
	v.SetDefault("foreground", "bea700")
	v.SetDefault("background", "000000")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return Config{}, fmt.Errorf("unable to locate home directory: %w", err)
		}
		v.AddConfigPath(home)
		v.SetConfigName(configName)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for _, key := range keys {
			if f := flags.Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("unable to bind flag %q: %w", key, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing home config is fine; an unreadable explicit one is not.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("unable to read config: %w", err)
		}
	}

	fg, err := parseColor(v.GetString("foreground"))
	if err != nil {
		return Config{}, err
	}

	bg, err := parseColor(v.GetString("background"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ClockHz:        v.GetInt("clock"),
		ShiftQuirk:     v.GetBool("shift-quirk"),
		LoadStoreQuirk: v.GetBool("load-store-quirk"),
		JumpQuirk:      v.GetBool("jump-quirk"),
		ClipSprites:    v.GetBool("clip-sprites"),
		Foreground:     fg,
		Background:     bg,
	}

	if cfg.ClockHz <= 0 {
		return Config{}, fmt.Errorf("invalid clock rate %d", cfg.ClockHz)
	}

	return cfg, nil
}

// parseColor parses an RRGGBB hex color, with or without a leading '#'.
func parseColor(s string) (uint32, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "#")

	value, err := strconv.ParseUint(trimmed, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}

	return uint32(value), nil
}
