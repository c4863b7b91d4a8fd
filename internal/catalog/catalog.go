// Package catalog resolves the expected dispersion measure of a named
// source. A lookup that fails is never fatal to a render; callers display
// the result as an explicit [ExpectedDM] that may be unknown.
//
// Three backends exist: a YAML table ([Table]), a SQLite database
// ([SQLite]) and the ATNF psrcat tool ([Psrcat]). [Chain] queries them in
// order and [Memo] caches answers across renders.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

var (
	// ErrNotFound means the backend answered but does not know the source.
	ErrNotFound = errors.New("source not in catalogue")
	// ErrUnavailable means the backend could not be queried at all.
	ErrUnavailable = errors.New("catalogue unavailable")
)

// Lookup returns the catalogued DM (pc cm^-3) for a source name.
type Lookup interface {
	ExpectedDM(ctx context.Context, source string) (float64, error)
}

// ExpectedDM is an optional DM value for display.
type ExpectedDM struct {
	Value float64
	Known bool
}

// String returns the value, or "unknown" when absent.
func (e ExpectedDM) String() string {
	if !e.Known {
		return "unknown"
	}
	return strconv.FormatFloat(e.Value, 'f', -1, 64)
}

// Resolve queries l and folds any failure into an unknown ExpectedDM. The
// error is returned alongside so the caller can log it. A nil Lookup
// yields unknown with ErrUnavailable.
func Resolve(ctx context.Context, l Lookup, source string) (ExpectedDM, error) {
	if l == nil {
		return ExpectedDM{}, ErrUnavailable
	}
	dm, err := l.ExpectedDM(ctx, source)
	if err != nil {
		return ExpectedDM{}, err
	}
	return ExpectedDM{Value: dm, Known: true}, nil
}

// NormalizeName canonicalises a source name for matching: surrounding
// space and a leading "PSR " are dropped and the result upper-cased.
func NormalizeName(name string) string {
	s := strings.TrimSpace(name)
	if len(s) >= 4 && strings.EqualFold(s[:4], "PSR ") {
		s = strings.TrimSpace(s[4:])
	}
	return strings.ToUpper(s)
}

// Chain tries each lookup in order and returns the first success. If every
// backend fails, the result wraps ErrNotFound when at least one backend
// answered, otherwise ErrUnavailable.
type Chain []Lookup

func (c Chain) ExpectedDM(ctx context.Context, source string) (float64, error) {
	if len(c) == 0 {
		return 0, ErrUnavailable
	}
	var errs []error
	answered := false
	for _, l := range c {
		dm, err := l.ExpectedDM(ctx, source)
		if err == nil {
			return dm, nil
		}
		if errors.Is(err, ErrNotFound) {
			answered = true
		}
		errs = append(errs, err)
	}
	sentinel := ErrUnavailable
	if answered {
		sentinel = ErrNotFound
	}
	return 0, fmt.Errorf("%w: %s: %w", sentinel, source, errors.Join(errs...))
}

// Memo caches results of an underlying Lookup per normalised source name,
// including ErrNotFound answers. Unavailable results are not cached.
type Memo struct {
	next Lookup

	mu    sync.Mutex
	cache map[string]memoEntry
}

type memoEntry struct {
	dm  float64
	err error
}

// NewMemo wraps next.
func NewMemo(next Lookup) *Memo {
	return &Memo{next: next, cache: make(map[string]memoEntry)}
}

func (m *Memo) ExpectedDM(ctx context.Context, source string) (float64, error) {
	key := NormalizeName(source)
	m.mu.Lock()
	e, ok := m.cache[key]
	m.mu.Unlock()
	if ok {
		return e.dm, e.err
	}

	dm, err := m.next.ExpectedDM(ctx, source)
	if err == nil || (errors.Is(err, ErrNotFound) && !errors.Is(err, ErrUnavailable)) {
		m.mu.Lock()
		m.cache[key] = memoEntry{dm: dm, err: err}
		m.mu.Unlock()
	}
	return dm, err
}
