package candidate

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// Kind is the expected type of an attribute value.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindAny // accepted as read; rendered with FormatValue
)

// AttrSpec describes one attribute the reader knows about.
type AttrSpec struct {
	Name     string
	Kind     Kind
	Required bool
}

// Schema lists the attributes the reader knows the type of. Sources that
// cannot enumerate their attributes are probed for exactly these.
var Schema = []AttrSpec{
	{"source_name", KindString, true},
	{"fch1", KindNumber, true},
	{"foff", KindNumber, true},
	{"nchans", KindNumber, true},
	{"dm", KindNumber, true},
	{"cand_id", KindAny, true},
	{"tsamp", KindNumber, true},
	{"dm_opt", KindNumber, true},
	{"snr", KindNumber, true},
	{"snr_opt", KindNumber, true},
	{"width", KindNumber, true},
	{"tcand", KindNumber, false},
	{"label", KindAny, false},
	{"fil_file", KindString, false},
	{"tstart", KindNumber, false},
	{"nbits", KindNumber, false},
	{"basename", KindString, false},
}

// SchemaNames returns the names in Schema, sorted.
func SchemaNames() []string {
	names := make([]string, len(Schema))
	for i, s := range Schema {
		names[i] = s.Name
	}
	slices.Sort(names)
	return names
}

func lookupSpec(name string) (AttrSpec, bool) {
	for _, s := range Schema {
		if s.Name == name {
			return s, true
		}
	}
	return AttrSpec{Name: name, Kind: KindAny}, false
}

// decodeHeader builds the typed header from the collected attributes.
// Missing required keys return ErrMissingAttribute; a value of the wrong
// type returns ErrCast.
func decodeHeader(attrs map[string]any) (Header, error) {
	var h Header
	var errs []error

	str := func(name string) string {
		v, ok := attrs[name]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingAttribute, name))
			return ""
		}
		s, ok := v.(string)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s is %T, want string", ErrCast, name, v))
		}
		return s
	}
	num := func(name string) float64 {
		v, ok := attrs[name]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingAttribute, name))
			return 0
		}
		f, ok := v.(float64)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s is %T, want number", ErrCast, name, v))
		}
		return f
	}

	h.SourceName = str("source_name")
	h.Fch1 = num("fch1")
	h.Foff = num("foff")
	nchans := num("nchans")
	h.DM = num("dm")
	if v, ok := attrs["cand_id"]; ok {
		h.CandID = FormatValue(v)
	} else {
		errs = append(errs, fmt.Errorf("%w: cand_id", ErrMissingAttribute))
	}
	h.Tsamp = num("tsamp")
	h.DMOpt = num("dm_opt")
	h.SNR = num("snr")
	h.SNROpt = num("snr_opt")
	h.Width = num("width")

	if nchans != math.Trunc(nchans) || nchans < 0 || math.IsInf(nchans, 0) {
		errs = append(errs, fmt.Errorf("%w: nchans %v is not a channel count", ErrCast, nchans))
	} else {
		h.NChans = int(nchans)
	}

	return h, hardFirst(errs)
}

// hardFirst joins errs so that a missing attribute, which is a hard failure,
// is never hidden behind a cast error.
func hardFirst(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	var missing []error
	for _, err := range errs {
		if errors.Is(err, ErrMissingAttribute) {
			missing = append(missing, err)
		}
	}
	if len(missing) > 0 {
		return errors.Join(missing...)
	}
	return errors.Join(errs...)
}
