package model

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pml/pkg/errors"
)

type knob struct {
	Depth int
}

func (k *knob) Fit(_, _ mat.Matrix) error { return nil }
func (k *knob) Clone() Estimator          { return &knob{Depth: k.Depth} }
func (k *knob) Name() string              { return "knob" }
func (k *knob) SetParams(p map[string]interface{}) error {
	for name, v := range p {
		if ParamKey(name) != "depth" {
			return UnknownParam(k.Name(), name)
		}
		d, err := Int(name, v)
		if err != nil {
			return err
		}
		k.Depth = d
	}
	return nil
}

type wrapped struct{ inner *knob }

func (w *wrapped) Fit(X, y mat.Matrix) error { return w.inner.Fit(X, y) }
func (w *wrapped) BaseEstimator() Estimator  { return w.inner }

type bare struct{}

func (bare) Fit(_, _ mat.Matrix) error { return nil }

func TestClone(t *testing.T) {
	c, err := Clone(&knob{Depth: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, c.(*knob).Depth)

	_, err = Clone(bare{})
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))
}

func TestSetParam(t *testing.T) {
	k := &knob{}
	require.NoError(t, SetParam(k, "Depth", 4.0))
	assert.Equal(t, 4, k.Depth)

	w := &wrapped{inner: &knob{}}
	require.NoError(t, SetParam(w, "depth", 6))
	assert.Equal(t, 6, w.inner.Depth)

	assert.Error(t, SetParam(bare{}, "depth", 1))
	assert.Error(t, SetParam(k, "width", 1))
}

func TestName(t *testing.T) {
	assert.Equal(t, "knob", Name(&knob{}))
	assert.Equal(t, "estimator", Name(bare{}))
}

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	assert.False(t, s.IsFitted())
	var nf *errors.NotFittedError
	assert.True(t, errors.As(s.RequireFitted("m", "Predict"), &nf))

	s.SetFitted(10, 3)
	assert.True(t, s.IsFitted())
	assert.NoError(t, s.RequireFitted("m", "Predict"))
	assert.NoError(t, s.RequireFeatures("op", 3))
	var de *errors.DimensionError
	assert.True(t, errors.As(s.RequireFeatures("op", 2), &de))

	s.Reset()
	assert.False(t, s.IsFitted())
	assert.Equal(t, 0, s.Features())
}

func TestModelGobRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SaveModelToWriter(&knob{Depth: 9}, &buf))
	var got knob
	require.NoError(t, LoadModelFromReader(&got, &buf))
	assert.Equal(t, 9, got.Depth)

	path := t.TempDir() + "/knob.gob"
	require.NoError(t, SaveModel(&knob{Depth: 2}, path))
	require.NoError(t, LoadModel(&got, path))
	assert.Equal(t, 2, got.Depth)

	assert.Error(t, LoadModel(&got, path+".missing"))
}
