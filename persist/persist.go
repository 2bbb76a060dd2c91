// Package persist dumps and loads intermediate results: gob files (plain or
// gzip compressed), .npy arrays and directory array caches. Bare file names
// live under the configured pickle directory.
package persist

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pml/core/model"
	"github.com/YuminosukeSato/pml/pkg/config"
	"github.com/YuminosukeSato/pml/pkg/errors"
	"github.com/YuminosukeSato/pml/pkg/log"
	"github.com/YuminosukeSato/pml/pkg/timer"
)

// DefaultExt is appended to names without an extension.
const DefaultExt = ".gob"

func compressed(file string) bool {
	return strings.HasSuffix(file, ".gob.gz") || strings.HasSuffix(file, ".pickle.gz")
}

// Resolve maps a name to the path Dump and Load use: names without a
// directory go under config PickleDir and names without an extension get
// DefaultExt. Compressed names are used as given.
func Resolve(file string) string {
	if compressed(file) {
		return file
	}
	if !strings.ContainsRune(file, '/') {
		file = filepath.Join(config.Get().PickleDir, file)
	}
	if !strings.ContainsRune(filepath.Base(file), '.') {
		file += DefaultExt
	}
	return file
}

func exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// Dump writes data to file. Existing files are only replaced when force is
// set. .npy targets take a mat.Matrix or []float64; everything else is gob
// encoded, gzip compressed for .gob.gz and .pickle.gz.
func Dump(file string, data interface{}, force bool) error {
	path := Resolve(file)
	if exists(path) && !force {
		return errors.NewFileExistsError(path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "creating %s", dir)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := encode(f, path, data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", path)
	}
	log.GetLoggerWithName("persist").Debug("dumped",
		log.OperationKey, log.OperationDump, log.PathKey, path)
	return nil
}

func encode(w io.Writer, path string, data interface{}) error {
	switch {
	case strings.HasSuffix(path, ".npy"):
		if err := npyio.Write(w, data); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
		return nil
	case compressed(path):
		zw := gzip.NewWriter(w)
		if err := model.SaveModelToWriter(data, zw); err != nil {
			return err
		}
		return zw.Close()
	default:
		return model.SaveModelToWriter(data, w)
	}
}

type loadOptions struct {
	fallback      func(into interface{}) error
	failIfMissing bool
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// FailIfMissing makes Load return a MissingFileError instead of (false,
// nil) when the file does not exist and no fallback is given.
func FailIfMissing() LoadOption {
	return func(o *loadOptions) { o.failIfMissing = true }
}

// Fallback computes the value when the file is missing. The result is
// stored into Load's target, which must be a *T, and dumped to the file.
//
//	var scores []float64
//	_, err := persist.Load("scores", &scores, persist.Fallback(computeScores))
func Fallback[T any](fn func() (T, error)) LoadOption {
	return func(o *loadOptions) {
		o.fallback = func(into interface{}) error {
			p, ok := into.(*T)
			if !ok {
				return errors.NewValueError("persist.Load", fmt.Sprintf("fallback yields %T but target is %T", *new(T), into))
			}
			v, err := fn()
			if err != nil {
				return err
			}
			*p = v
			return nil
		}
	}
}

// Load decodes file into the pointer into and reports whether a value was
// produced. A missing file runs the fallback (and dumps its result), fails
// with MissingFileError under FailIfMissing, or returns (false, nil).
func Load(file string, into interface{}, opts ...LoadOption) (bool, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	timer.Start("loading file: " + file)
	defer timer.Stop("done loading file: " + file)

	path := Resolve(file)
	if !exists(path) {
		switch {
		case o.fallback != nil:
			if err := o.fallback(into); err != nil {
				return false, err
			}
			return true, Dump(path, into, false)
		case o.failIfMissing:
			return false, errors.NewMissingFileError(path)
		default:
			return false, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return false, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	switch {
	case strings.HasSuffix(path, ".npy"):
		err = npyio.Read(f, into)
		if err != nil {
			err = errors.Wrapf(err, "reading %s", path)
		}
	case compressed(path):
		var zr *gzip.Reader
		if zr, err = gzip.NewReader(f); err != nil {
			return false, errors.Wrapf(err, "reading %s", path)
		}
		defer zr.Close()
		err = model.LoadModelFromReader(into, zr)
	default:
		err = model.LoadModelFromReader(into, f)
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

const arrayFile = "data.npy"

// SaveArray writes m into the cache directory dir, replacing its content.
func SaveArray(dir string, m mat.Matrix) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}
	return Dump(filepath.Join(dir, arrayFile), m, true)
}

// LoadArray reads the array cached in dir. When dir does not exist the
// fallback is called and its result cached before being returned.
func LoadArray(dir string, fallback func() (mat.Matrix, error)) (*mat.Dense, error) {
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		if fallback == nil {
			return nil, errors.NewMissingFileError(dir)
		}
		m, err := fallback()
		if err != nil {
			return nil, err
		}
		if err := SaveArray(dir, m); err != nil {
			return nil, err
		}
		return mat.DenseCopyOf(m), nil
	}
	var m mat.Dense
	if _, err := Load(filepath.Join(dir, arrayFile), &m, FailIfMissing()); err != nil {
		return nil, err
	}
	return &m, nil
}
