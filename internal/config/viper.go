package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Keys shared by flags, environment variables (DOCSIM_<KEY>) and config files.
const (
	KeyQuery         = "query"
	KeyPath          = "path"
	KeyExtensions    = "extensions"
	KeyMaxDepth      = "max_depth"
	KeyWindowSize    = "window_size"
	KeyMaxWindowSize = "max_window_size"
	KeyOverlap       = "overlap"
	KeyThreshold     = "threshold"
	KeyTopN          = "top_n"
	KeyThreads       = "threads"
)

const envPrefix = "DOCSIM"

// NewViper returns a viper instance with defaults, environment binding and,
// when present, the YAML config file loaded. An explicit file that cannot be
// read is an error; a missing default file is not.
func NewViper(file string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
		return v, nil
	}

	if path := DefaultFile(); path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				slog.Warn("ignoring unreadable config file", "path", path, "err", err)
			}
		}
	}
	return v, nil
}

// DefaultFile is $XDG_CONFIG_HOME/docsim/config.yaml (or the platform equivalent).
func DefaultFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "docsim", "config.yaml")
}

// FromViper assembles a Config from the resolved viper values.
func FromViper(v *viper.Viper) Config {
	return Config{
		Query:         v.GetString(KeyQuery),
		SearchPath:    v.GetString(KeyPath),
		Extensions:    NormalizeExtensions(v.GetStringSlice(KeyExtensions)),
		MaxDepth:      v.GetInt(KeyMaxDepth),
		WindowSize:    v.GetInt(KeyWindowSize),
		MaxWindowSize: v.GetInt(KeyMaxWindowSize),
		Overlap:       v.GetInt(KeyOverlap),
		Threshold:     v.GetFloat64(KeyThreshold),
		TopN:          v.GetInt(KeyTopN),
		Threads:       v.GetInt(KeyThreads),
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault(KeyPath, d.SearchPath)
	v.SetDefault(KeyExtensions, d.Extensions)
	v.SetDefault(KeyMaxDepth, d.MaxDepth)
	v.SetDefault(KeyWindowSize, d.WindowSize)
	v.SetDefault(KeyMaxWindowSize, d.MaxWindowSize)
	v.SetDefault(KeyOverlap, d.Overlap)
	v.SetDefault(KeyThreshold, d.Threshold)
	v.SetDefault(KeyTopN, d.TopN)
	v.SetDefault(KeyThreads, d.Threads)
}
