// Package config holds the process-wide run configuration read by nearly
// every pml helper: the random seed, the debug switch that gates timing
// logs, the default scoring, job hints and an optional custom splitter.
//
// The configuration is a single mutable value; writers replace fields under
// a lock and the last write wins. Readers take a copy with Get.
package config

import (
	"sync"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/pml/core/model"
)

// Config contains the run-level parameters.
type Config struct {
	// Seed feeds every splitter, search and estimator random state.
	Seed int64 `mapstructure:"seed" yaml:"seed"`

	// Debug enables Start/Stop timing logs and Dbg output.
	Debug bool `mapstructure:"debug" yaml:"debug"`

	// Scoring is the default scorer name; empty means the estimator's own
	// default (accuracy for classifiers, r2 for regressors).
	Scoring string `mapstructure:"scoring" yaml:"scoring"`

	// ScoringHigherBetter tells column and ensemble searches which way to
	// optimise.
	ScoringHigherBetter bool `mapstructure:"scoring_higher_better" yaml:"scoring_higher_better"`

	// Indent is the nesting level prefixed to timer messages.
	Indent int `mapstructure:"indent" yaml:"indent" validate:"gte=0"`

	// CVNJobs overrides an n_jobs hint of -1 when positive.
	CVNJobs int `mapstructure:"cv_n_jobs" yaml:"cv_n_jobs" validate:"ne=0"`

	// PickleDir is where bare file names are dumped and loaded.
	PickleDir string `mapstructure:"pickle_dir" yaml:"pickle_dir" validate:"required"`

	// RunID tags log records of this process.
	RunID string `mapstructure:"run_id" yaml:"run_id" validate:"required"`

	// CustomCV replaces the shuffle splitters in DoCV when set.
	CustomCV model.Splitter `mapstructure:"-" yaml:"-"`
}

// Default returns the configuration a fresh process starts with.
func Default() Config {
	return Config{
		Seed:                0,
		Debug:               true,
		Scoring:             "",
		ScoringHigherBetter: true,
		Indent:              0,
		CVNJobs:             -1,
		PickleDir:           "data/pickles",
		RunID:               uuid.NewString(),
	}
}

var (
	mu      sync.RWMutex
	current = Default()
)

// Get returns a copy of the current configuration.
func Get() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Set applies fn to the current configuration under the write lock.
//
//	config.Set(func(c *config.Config) { c.Debug = false })
func Set(fn func(c *Config)) {
	mu.Lock()
	defer mu.Unlock()
	fn(&current)
}

// Replace swaps in c wholesale and returns the previous configuration.
func Replace(c Config) Config {
	mu.Lock()
	defer mu.Unlock()
	prev := current
	current = c
	return prev
}

// Reset restores Default.
func Reset() {
	Replace(Default())
}

// Debug reports whether debug logging is on.
func Debug() bool {
	return Get().Debug
}

// Seed returns the configured seed.
func Seed() int64 {
	return Get().Seed
}
