package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pml/core/model"
	"github.com/YuminosukeSato/pml/pkg/errors"
)

type fixedSplitter struct{}

func (fixedSplitter) Split(X, y mat.Matrix) ([]model.Fold, error) { return nil, nil }
func (fixedSplitter) NSplits() int                                { return 1 }

func TestDefaults(t *testing.T) {
	d := Default()
	assert.Equal(t, int64(0), d.Seed)
	assert.True(t, d.Debug)
	assert.Empty(t, d.Scoring)
	assert.True(t, d.ScoringHigherBetter)
	assert.Equal(t, -1, d.CVNJobs)
	assert.Nil(t, d.CustomCV)
	assert.Equal(t, "data/pickles", d.PickleDir)
	assert.NotEmpty(t, d.RunID)
}

func TestSetLastWriteWins(t *testing.T) {
	t.Cleanup(Reset)

	Set(func(c *Config) { c.Seed = 1 })
	Set(func(c *Config) { c.Seed = 7 })
	assert.Equal(t, int64(7), Seed())

	snapshot := Get()
	snapshot.Seed = 99
	assert.Equal(t, int64(7), Seed(), "Get must return a copy")
}

func TestReadYAMLAndEnv(t *testing.T) {
	t.Cleanup(Reset)
	path := filepath.Join(t.TempDir(), "pml.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 42\ndebug: false\nscoring: roc_auc\ncv_n_jobs: 4\n"), 0o644))

	t.Setenv("PML_INDENT", "2")

	c, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.Seed)
	assert.False(t, c.Debug)
	assert.Equal(t, "roc_auc", c.Scoring)
	assert.Equal(t, 4, c.CVNJobs)
	assert.Equal(t, 2, c.Indent)
	assert.True(t, c.ScoringHigherBetter)
}

func TestLoadKeepsCustomCV(t *testing.T) {
	t.Cleanup(Reset)
	Set(func(c *Config) { c.CustomCV = fixedSplitter{} })

	path := filepath.Join(t.TempDir(), "pml.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 3\n"), 0o644))
	require.NoError(t, Load(path))

	assert.Equal(t, int64(3), Seed())
	assert.NotNil(t, Get().CustomCV)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Cleanup(Reset)
	Set(func(c *Config) {
		c.Seed = 11
		c.Scoring = "neg_log_loss"
		c.ScoringHigherBetter = false
	})

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, Save(path))

	c, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, int64(11), c.Seed)
	assert.Equal(t, "neg_log_loss", c.Scoring)
	assert.False(t, c.ScoringHigherBetter)
	assert.Equal(t, Get().RunID, c.RunID)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestReadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"indent":     "indent: -1\n",
		"cv_n_jobs":  "cv_n_jobs: 0\n",
		"pickle_dir": "pickle_dir: \"\"\n",
	}
	for key, body := range cases {
		t.Run(key, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pml.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

			_, err := Read(path)
			var ve *errors.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, key, ve.ParamName)
		})
	}
}

func TestValidateDefault(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}
