// Package config resolves the memory subsystem configuration with layered
// precedence: explicit values > environment (MINDLOG_*) > config file >
// defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mindlog/mindlog/internal/errs"
)

// FileName is the optional per-project config file, looked up inside Dir.
const FileName = "config.yaml"

// Dir is the per-project directory holding the store and config.
const Dir = ".mindlog"

// StoreFileName is the store file inside Dir.
const StoreFileName = "mind.log"

// Config is the resolved memory subsystem configuration.
type Config struct {
	StorePath string `mapstructure:"store_path"`
	Debug     bool   `mapstructure:"debug"`
	AutoInit  bool   `mapstructure:"auto_init"`

	Buffer  BufferConfig  `mapstructure:"buffer"`
	Lock    LockConfig    `mapstructure:"lock"`
	Context ContextConfig `mapstructure:"context"`
	Dedup   DedupConfig   `mapstructure:"dedup"`
	Store   StoreConfig   `mapstructure:"store"`
	Session SessionConfig `mapstructure:"session"`
}

// BufferConfig controls event buffering.
type BufferConfig struct {
	MaxSize       int           `mapstructure:"max_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// LockConfig controls lock acquisition.
type LockConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

// ContextConfig controls context assembly.
type ContextConfig struct {
	MaxTokens int `mapstructure:"max_tokens"`
	Recent    int `mapstructure:"recent"`
	Relevant  int `mapstructure:"relevant"`
}

// DedupConfig controls capture deduplication.
type DedupConfig struct {
	Window time.Duration `mapstructure:"window"`
}

// StoreConfig controls the storage engine.
type StoreConfig struct {
	MaxFileBytes int64 `mapstructure:"max_file_bytes"`
}

// SessionConfig controls session-end behavior.
type SessionConfig struct {
	// SummaryThreshold is the minimum number of observations a session must
	// accumulate before a session-summary entry is synthesized.
	SummaryThreshold int `mapstructure:"summary_threshold"`
}

// Load resolves configuration for the project rooted at projectDir. An empty
// projectDir means the current working directory. A missing config file is
// not an error; a malformed one is.
func Load(projectDir string) (*Config, error) {
	if projectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errs.Wrap(err, errs.CodeConfigLoadFailure, "resolve working directory")
		}
		projectDir = wd
	}

	v := viper.New()

	v.SetDefault("store_path", filepath.Join(projectDir, Dir, StoreFileName))
	v.SetDefault("debug", false)
	v.SetDefault("auto_init", true)
	v.SetDefault("buffer.max_size", 10)
	v.SetDefault("buffer.flush_interval", 2*time.Second)
	v.SetDefault("lock.timeout", 5*time.Second)
	v.SetDefault("lock.stale_after", 30*time.Second)
	v.SetDefault("context.max_tokens", 2000)
	v.SetDefault("context.recent", 20)
	v.SetDefault("context.relevant", 10)
	v.SetDefault("dedup.window", 60*time.Second)
	v.SetDefault("store.max_file_bytes", int64(100<<20))
	v.SetDefault("session.summary_threshold", 3)

	v.SetEnvPrefix("MINDLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfgFile := filepath.Join(projectDir, Dir, FileName)
	if _, err := os.Stat(cfgFile); err == nil {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.Wrapf(err, errs.CodeConfigLoadFailure, "read config %s", cfgFile)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.Wrap(err, errs.CodeConfigLoadFailure, "unmarshal config")
	}
	return &cfg, nil
}
