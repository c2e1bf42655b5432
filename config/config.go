// Package config reads the TOML file that drives the ksvd command.
package config

import (
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/reggo/ksvd"
	"github.com/reggo/ksvd/logutil"
	"github.com/reggo/ksvd/loss"
	"github.com/reggo/ksvd/scale"
)

// Model holds the dictionary hyperparameters.
type Model struct {
	NumComponents int     `toml:"n_components"`
	NonzeroCoefs  int     `toml:"n_nonzero_coefs"` // 0 means n_components
	MaxIter       int     `toml:"max_iter"`
	Tol           float64 `toml:"tol"`
}

// Preprocess selects the feature scaling and the score reported after fit.
type Preprocess struct {
	Scale string `toml:"scale"`
	Loss  string `toml:"loss"`
}

type Config struct {
	Model      Model          `toml:"model"`
	Preprocess Preprocess     `toml:"preprocess"`
	Log        logutil.Config `toml:"log"`
}

// Default returns the configuration used for keys absent from a file.
// n_components has no default.
func Default() Config {
	return Config{
		Model: Model{
			MaxIter: ksvd.DefaultMaxIter,
			Tol:     ksvd.DefaultTol,
		},
		Preprocess: Preprocess{
			Scale: "none",
			Loss:  "squared",
		},
		Log: logutil.Default(),
	}
}

// Load decodes and validates the file at path.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: decoding %s", path)
	}
	if err := checkUndecoded(md); err != nil {
		return Config{}, errors.Wrap(err, path)
	}
	return cfg, cfg.Validate()
}

// Decode reads a configuration from r.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, errors.Wrap(err, "config: decoding")
	}
	if err := checkUndecoded(md); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func checkUndecoded(md toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, len(undecoded))
	for i, k := range undecoded {
		keys[i] = k.String()
	}
	return errors.Errorf("config: unknown keys %s", strings.Join(keys, ", "))
}

// Validate checks every setting that can be checked without data.
func (c Config) Validate() error {
	if c.Model.NumComponents < 1 {
		return errors.Errorf("config: model.n_components must be positive, got %d", c.Model.NumComponents)
	}
	if _, err := ksvd.New(c.Model.NumComponents, c.Options()...); err != nil {
		return errors.Wrap(err, "config")
	}
	if _, err := scale.ByName(c.Preprocess.Scale); err != nil {
		return errors.Wrap(err, "config")
	}
	if _, err := loss.ByName(c.Preprocess.Loss); err != nil {
		return errors.Wrap(err, "config")
	}
	return errors.Wrap(c.Log.Validate(), "config")
}

// Options returns the model options of c. A zero n_nonzero_coefs is left to
// the model default.
func (c Config) Options() []ksvd.Option {
	opts := []ksvd.Option{
		ksvd.WithMaxIter(c.Model.MaxIter),
		ksvd.WithTol(c.Model.Tol),
	}
	if c.Model.NonzeroCoefs != 0 {
		opts = append(opts, ksvd.WithNonzeroCoefs(c.Model.NonzeroCoefs))
	}
	return opts
}

// Scaler returns a new unscaled Scaler named by preprocess.scale.
func (c Config) Scaler() (scale.Scaler, error) {
	return scale.ByName(c.Preprocess.Scale)
}

// Losser returns the loss named by preprocess.loss.
func (c Config) Losser() (loss.Losser, error) {
	return loss.ByName(c.Preprocess.Loss)
}
