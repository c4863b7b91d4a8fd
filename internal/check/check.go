// Package check provides system diagnostics (`candplot check`) and
// pre-batch dependency validation (CheckDeps) for the HDF5 library, the
// embedded font, PNG encoding, the DM catalogue sources and the viewer.
package check

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"gonum.org/v1/hdf5"

	"github.com/backmassage/candplot/internal/candidate"
	"github.com/backmassage/candplot/internal/catalog"
	"github.com/backmassage/candplot/internal/config"
	"github.com/backmassage/candplot/internal/figure"
	"github.com/backmassage/candplot/internal/render"
)

// Sentinel errors returned by CheckDeps when a required component is unusable.
var (
	ErrHDF5Unusable    = errors.New("HDF5 library cannot create and reopen a file")
	ErrFontUnavailable = errors.New("embedded font failed to load")
	ErrEncodeFailed    = errors.New("PNG encode smoke test failed")
)

// Logger is the minimal logging interface needed by RunCheck.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// RunCheck runs the `candplot check` flow and reports whether every
// required component works. Optional components (psrcat, the viewer when
// --show is off) only warn.
func RunCheck(ctx context.Context, cfg *config.Config, log Logger) bool {
	log.Info("=== System Check ===")

	ok := true
	ok = checkHDF5(cfg, log) && ok
	ok = checkFont(log) && ok
	ok = checkEncode(log) && ok
	ok = checkCatalog(ctx, cfg, log) && ok
	ok = checkViewer(cfg, log) && ok

	if ok {
		log.Success("All required components work")
	}
	return ok
}

// checkHDF5 creates an empty file and reopens it through the candidate opener.
func checkHDF5(cfg *config.Config, log Logger) bool {
	if err := hdf5RoundTrip(cfg.FileLocking); err != nil {
		log.Error("HDF5: %v", err)
		return false
	}
	state := "off"
	if cfg.FileLocking {
		state = "on"
	}
	log.Success("HDF5: create and reopen work (file locking %s)", state)
	return true
}

func checkFont(log Logger) bool {
	if _, err := figure.LoadFont(); err != nil {
		log.Error("Font: %v", err)
		return false
	}
	log.Success("Font: embedded Go Regular loaded")
	return true
}

func checkEncode(log Logger) bool {
	n, err := encodeSmoke()
	if err != nil {
		log.Error("PNG: %v", err)
		return false
	}
	log.Success("PNG: test figure encoded (%d bytes)", n)
	return true
}

// checkCatalog verifies every configured DM source. A configured file that
// cannot be read is an error; a missing psrcat only warns.
func checkCatalog(ctx context.Context, cfg *config.Config, log Logger) bool {
	ok := true
	if cfg.CatalogFile != "" {
		t, err := catalog.LoadTable(cfg.CatalogFile)
		if err != nil {
			log.Error("Catalogue table: %v", err)
			ok = false
		} else {
			log.Success("Catalogue table: %d sources in %s", t.Len(), cfg.CatalogFile)
		}
	}
	if cfg.CatalogDB != "" {
		db, err := catalog.OpenSQLite(cfg.CatalogDB)
		if err != nil {
			log.Error("Catalogue database: %v", err)
			ok = false
		} else {
			_, qerr := db.ExpectedDM(ctx, "J0000+0000")
			db.Close()
			if qerr != nil && !errors.Is(qerr, catalog.ErrNotFound) {
				log.Error("Catalogue database: %v", qerr)
				ok = false
			} else {
				log.Success("Catalogue database: %s", cfg.CatalogDB)
			}
		}
	}
	if cfg.Psrcat != "" {
		p := catalog.Psrcat{Bin: cfg.Psrcat}
		if p.Available() {
			log.Success("psrcat: %s found", cfg.Psrcat)
		} else {
			log.Warn("psrcat: %s not found on PATH (expected DMs come from the other sources only)", cfg.Psrcat)
		}
	}
	if cfg.CatalogFile == "" && cfg.CatalogDB == "" && cfg.Psrcat == "" {
		log.Warn("No DM catalogue configured; every expected DM will show as unknown")
	}
	return ok
}

func checkViewer(cfg *config.Config, log Logger) bool {
	v := render.ExecViewer{Command: cfg.Viewer}
	switch {
	case v.Available():
		log.Success("Viewer: %s", cfg.Viewer)
	case cfg.Show:
		log.Error("Viewer: %q not found on PATH (needed by --show)", cfg.Viewer)
		return false
	default:
		log.Debug(cfg.Verbose, "Viewer: %q not found on PATH (only needed by --show)", cfg.Viewer)
	}
	return true
}

// CheckDeps is the pre-batch validation: it verifies that HDF5 files can be
// opened, the font loads and a figure encodes. Returns a sentinel error on
// failure.
func CheckDeps(cfg *config.Config) error {
	if err := hdf5RoundTrip(cfg.FileLocking); err != nil {
		return fmt.Errorf("%w: %v", ErrHDF5Unusable, err)
	}
	if _, err := figure.LoadFont(); err != nil {
		return fmt.Errorf("%w: %v", ErrFontUnavailable, err)
	}
	if _, err := encodeSmoke(); err != nil {
		return fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	return nil
}

// --- internal helpers ---

// hdf5RoundTrip writes an empty HDF5 file to a temporary directory and
// opens it with the same opener the batch uses.
func hdf5RoundTrip(locking bool) error {
	dir, err := os.MkdirTemp("", "candplot-check-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "probe.h5")
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	var op candidate.HDF5Opener
	src, err := op.Open(path, candidate.OpenOptions{FileLocking: locking})
	if err != nil {
		return fmt.Errorf("reopen: %w", err)
	}
	return src.Close()
}

// encodeSmoke draws a small labelled figure, encodes it and decodes it back.
func encodeSmoke() (int, error) {
	fig, err := figure.New(320, 200)
	if err != nil {
		return 0, err
	}
	defer fig.Close()

	ax, err := figure.NewAxes(figure.Rect{X: 40, Y: 20, W: 260, H: 140},
		figure.Limits{Lo: 0, Hi: 1}, figure.Limits{Lo: 0, Hi: 1})
	if err != nil {
		return 0, err
	}
	if err := fig.StepMid(ax, []float64{0, 0.5, 1}, []float64{0, 1, 0}); err != nil {
		return 0, err
	}
	if err := fig.Decorate(ax, "x", "y"); err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	if err := fig.EncodePNG(&buf); err != nil {
		return 0, err
	}
	n := buf.Len()
	img, err := png.Decode(&buf)
	if err != nil {
		return 0, err
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 200 {
		return 0, fmt.Errorf("decoded size %dx%d, want 320x200", b.Dx(), b.Dy())
	}
	return n, nil
}
