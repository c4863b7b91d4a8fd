package candidate

import (
	"fmt"
	"os"
	"sync"

	"gonum.org/v1/hdf5"

	"github.com/backmassage/candplot/internal/dsp"
)

// fileLockingEnv is read by libhdf5 on every H5Fopen.
const fileLockingEnv = "HDF5_USE_FILE_LOCKING"

// libMu serialises every call into libhdf5. Stock builds are not
// thread-safe and the binding adds no locking of its own.
var libMu sync.Mutex

// HDF5Opener opens candidate files through libhdf5. Attributes live on the
// root group; datasets at the top level. Sources from any number of openers
// may be used from concurrent goroutines.
type HDF5Opener struct{}

// Open opens path read-only. The cgo binding does not expose the file access
// property for locking, so opts.FileLocking is applied through the library's
// environment switch immediately before the open.
func (o *HDF5Opener) Open(path string, opts OpenOptions) (Source, error) {
	libMu.Lock()
	defer libMu.Unlock()

	if err := setFileLocking(opts.FileLocking); err != nil {
		return nil, err
	}
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, err
	}
	root, err := f.OpenGroup("/")
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open root group: %w", err)
	}
	return &h5Source{file: f, root: root}, nil
}

func setFileLocking(enabled bool) error {
	v := "FALSE"
	if enabled {
		v = "TRUE"
	}
	return os.Setenv(fileLockingEnv, v)
}

type h5Source struct {
	file *hdf5.File
	root *hdf5.Group
}

// AttrNames lists every attribute on the root group.
func (s *h5Source) AttrNames() ([]string, error) {
	libMu.Lock()
	defer libMu.Unlock()
	return attrNamesOf(s.root.ID())
}

func (s *h5Source) Attr(name string) (any, error) {
	libMu.Lock()
	defer libMu.Unlock()

	a, err := s.root.OpenAttribute(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingAttribute, name)
	}
	defer a.Close()

	space := a.Space()
	n := space.SimpleExtentNPoints()
	space.Close()
	if n != 1 {
		return nil, fmt.Errorf("%w: %s has %d elements", ErrNotScalar, name, n)
	}

	spec, _ := lookupSpec(name)
	if spec.Kind != KindString {
		var f float64
		err := a.Read(&f, hdf5.T_NATIVE_DOUBLE)
		if err == nil {
			return f, nil
		}
		if spec.Kind == KindNumber {
			return nil, fmt.Errorf("%w: %s: %v", ErrCast, name, err)
		}
	}
	var str string
	if err := a.Read(&str, hdf5.T_GO_STRING); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCast, name, err)
	}
	return str, nil
}

func (s *h5Source) Dataset(name string) (*dsp.Matrix, error) {
	libMu.Lock()
	defer libMu.Unlock()

	d, err := s.file.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingDataset, name)
	}
	defer d.Close()

	space := d.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, fmt.Errorf("dataset %s extent: %w", name, err)
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("%w: %s has rank %d, want 2", dsp.ErrShape, name, len(dims))
	}

	data := make([]float64, dims[0]*dims[1])
	if len(data) > 0 {
		if err := d.Read(&data); err != nil {
			return nil, fmt.Errorf("%w: dataset %s: %v", ErrCast, name, err)
		}
	}
	m, err := dsp.NewMatrix(int(dims[0]), int(dims[1]), data)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}
	return m, nil
}

func (s *h5Source) Close() error {
	libMu.Lock()
	defer libMu.Unlock()

	gerr := s.root.Close()
	ferr := s.file.Close()
	if ferr != nil {
		return ferr
	}
	return gerr
}
