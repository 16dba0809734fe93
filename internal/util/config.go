package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type HistoryConfig struct {
	// Driver is one of sqlite3, mysql or postgres; empty disables the journal.
	Driver string `toml:"driver" yaml:"driver"`
	DSN    string `toml:"dsn" yaml:"dsn"`
}

type ReplConfig struct {
	HistoryFile string `toml:"history_file" yaml:"history_file"`
}

type Configuration struct {
	// build metadata, never read from file
	Version   string `toml:"-" yaml:"-"`
	BuildDate string `toml:"-" yaml:"-"`
	Commit    string `toml:"-" yaml:"-"`

	LogLevel  string        `toml:"log_level" yaml:"log_level"`
	LogFile   string        `toml:"log_file" yaml:"log_file"`
	LogFormat string        `toml:"log_format" yaml:"log_format"`
	Color     bool          `toml:"color" yaml:"color"`
	// ASTFormat, when set, prints the AST (text, json or yaml) before running.
	ASTFormat string        `toml:"ast_format" yaml:"ast_format"`
	History   HistoryConfig `toml:"history" yaml:"history"`
	Repl      ReplConfig    `toml:"repl" yaml:"repl"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		Version:   "dev",
		BuildDate: "unknown",
		Commit:    "unknown",
		LogLevel:  "none",
		LogFormat: "json",
		Color:     true,
		Repl: ReplConfig{
			HistoryFile: filepath.Join(ConfigDir(), "repl_history"),
		},
	}
}

// ConfigDir is $CALRU_HOME, falling back to ~/.calru.
func ConfigDir() string {
	if home := os.Getenv("CALRU_HOME"); home != "" {
		return home
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".calru")
	}
	return ".calru"
}

// LoadConfiguration overlays the file at path on cfg. The format follows
// the extension: .yaml/.yml for YAML, anything else TOML.
func LoadConfiguration(path string, cfg *Configuration) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config '%s': %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return fmt.Errorf("YAML parse error in '%s': %w", path, err)
		}
	default:
		if _, err := toml.Decode(string(content), cfg); err != nil {
			return fmt.Errorf("TOML parse error in '%s': %w", path, err)
		}
	}
	return nil
}
