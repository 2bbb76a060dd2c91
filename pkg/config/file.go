package config

import (
	"os"
	"reflect"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/go-playground/validator.v9"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/pml/pkg/errors"
)

// EnvPrefix prefixes environment overrides, e.g. PML_SEED=42.
const EnvPrefix = "PML"

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
	})
	return v
}()

// Validate checks the field constraints declared on Config and reports the
// first violation as a ValidationError named after the config key.
func Validate(c Config) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return errors.Wrap(err, "config: validate")
	}
	fe := fields[0]
	return errors.NewValidationError(fe.Field(), "must satisfy "+fe.ActualTag()+"="+fe.Param(), fe.Value())
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("seed", d.Seed)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("scoring", d.Scoring)
	v.SetDefault("scoring_higher_better", d.ScoringHigherBetter)
	v.SetDefault("indent", d.Indent)
	v.SetDefault("cv_n_jobs", d.CVNJobs)
	v.SetDefault("pickle_dir", d.PickleDir)
	v.SetDefault("run_id", d.RunID)
}

// Read parses a YAML, JSON or TOML file (by extension) on top of Default,
// then applies PML_* environment overrides. An empty path reads only the
// environment.
func Read(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "config: read %s", path)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrapf(err, "config: decode %s", path)
	}
	if err := Validate(c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads path and installs the result, keeping the current CustomCV.
func Load(path string) error {
	c, err := Read(path)
	if err != nil {
		return err
	}
	Set(func(cur *Config) {
		c.CustomCV = cur.CustomCV
		*cur = c
	})
	return nil
}

// Save writes the current configuration to path as YAML.
func Save(path string) error {
	data, err := yaml.Marshal(Get())
	if err != nil {
		return errors.Wrap(err, "config: encode")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "config: write %s", path)
	}
	return nil
}
