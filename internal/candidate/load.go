package candidate

import (
	"errors"
	"fmt"
	"slices"

	"github.com/backmassage/candplot/internal/dsp"
)

// OpenOptions are passed to every Open call.
type OpenOptions struct {
	// FileLocking enables the container library's advisory file locks.
	// Candidate files are read concurrently from shared storage, so the
	// default is off.
	FileLocking bool
}

// Source is an open candidate file.
type Source interface {
	// Attr returns a scalar attribute as float64 or string. A missing
	// attribute returns an error wrapping ErrMissingAttribute.
	Attr(name string) (any, error)
	// Dataset returns a named 2-D array. A missing dataset returns an
	// error wrapping ErrMissingDataset.
	Dataset(name string) (*dsp.Matrix, error)
	Close() error
}

// AttrLister is implemented by sources that can enumerate their attributes.
// Sources without it are probed with SchemaNames.
type AttrLister interface {
	AttrNames() ([]string, error)
}

// Opener opens candidate files.
type Opener interface {
	Open(path string, opts OpenOptions) (Source, error)
}

// Load opens path, reads every attribute and both datasets, and closes the
// file before returning, on success and on failure.
func Load(op Opener, path string, opts OpenOptions) (*Record, error) {
	return load(op, path, opts, true)
}

// LoadHeader reads only the attributes of path. The returned record has nil
// arrays.
func LoadHeader(op Opener, path string, opts OpenOptions) (*Record, error) {
	return load(op, path, opts, false)
}

func load(op Opener, path string, opts OpenOptions, arrays bool) (rec *Record, err error) {
	src, err := op.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	names, err := attrNames(src)
	if err != nil {
		return nil, fmt.Errorf("list attributes of %s: %w", path, err)
	}

	rec = &Record{Path: path}
	values := make(map[string]any, len(names))
	for _, name := range names {
		v, err := src.Attr(name)
		if errors.Is(err, ErrMissingAttribute) {
			// Required keys are reported by decodeHeader.
			continue
		}
		if err != nil {
			// Unknown attributes that are not plain scalars are left out of
			// the text block.
			if _, known := lookupSpec(name); !known && errors.Is(err, ErrCast) {
				continue
			}
			return nil, fmt.Errorf("%s: attribute %s: %w", path, name, err)
		}
		values[name] = v
		rec.Attrs = append(rec.Attrs, Attr{Key: name, Value: v})
	}

	rec.Header, err = decodeHeader(values)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !arrays {
		return rec, nil
	}

	if rec.DMTime, err = src.Dataset(DatasetDMTime); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if rec.FreqTime, err = src.Dataset(DatasetFreqTime); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// attrNames returns the attribute names to read, sorted.
func attrNames(src Source) ([]string, error) {
	l, ok := src.(AttrLister)
	if !ok {
		return SchemaNames(), nil
	}
	names, err := l.AttrNames()
	if err != nil {
		return nil, err
	}
	names = slices.Clone(names)
	slices.Sort(names)
	return names, nil
}
