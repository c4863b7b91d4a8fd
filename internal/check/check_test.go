package check

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backmassage/candplot/internal/catalog"
	"github.com/backmassage/candplot/internal/config"
)

// mockLogger records messages per level.
type mockLogger struct {
	lines map[string][]string
}

func newMockLogger() *mockLogger { return &mockLogger{lines: map[string][]string{}} }

func (m *mockLogger) add(level, format string, args []interface{}) {
	m.lines[level] = append(m.lines[level], fmt.Sprintf(format, args...))
}

func (m *mockLogger) Info(f string, a ...interface{}) { m.add("info", f, a) }
func (m *mockLogger) Success(f string, a ...interface{}) { m.add("success", f, a) }
func (m *mockLogger) Warn(f string, a ...interface{}) { m.add("warn", f, a) }
func (m *mockLogger) Error(f string, a ...interface{}) { m.add("error", f, a) }
func (m *mockLogger) Debug(v bool, f string, a ...interface{}) {
	if v {
		m.add("debug", f, a)
	}
}

func (m *mockLogger) has(level, substr string) bool {
	for _, l := range m.lines[level] {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// offlineConfig points every external tool at a path that does not exist.
func offlineConfig(t *testing.T) config.Config {
	cfg := config.DefaultConfig()
	missing := filepath.Join(t.TempDir(), "missing")
	cfg.Psrcat = missing + "-psrcat"
	cfg.Viewer = missing + "-viewer"
	return cfg
}

func TestRunCheck_Offline(t *testing.T) {
	cfg := offlineConfig(t)
	log := newMockLogger()

	if !RunCheck(context.Background(), &cfg, log) {
		t.Fatalf("RunCheck failed: %v", log.lines["error"])
	}
	for _, want := range []string{"HDF5", "Font", "PNG", "All required"} {
		if !log.has("success", want) {
			t.Errorf("missing success line for %q: %v", want, log.lines["success"])
		}
	}
	if !log.has("warn", "psrcat") {
		t.Errorf("missing psrcat warning: %v", log.lines["warn"])
	}
}

func TestRunCheck_ShowNeedsViewer(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Show = true
	log := newMockLogger()

	if RunCheck(context.Background(), &cfg, log) {
		t.Fatal("RunCheck should fail when --show has no viewer")
	}
	if !log.has("error", "Viewer") {
		t.Errorf("errors = %v", log.lines["error"])
	}
}

func TestCheckCatalog(t *testing.T) {
	dir := t.TempDir()
	table := filepath.Join(dir, "dm.yaml")
	if err := os.WriteFile(table, []byte("sources:\n  - name: B0329+54\n    dm: 26.7641\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	dbPath := filepath.Join(dir, "dm.sqlite")
	db, err := catalog.CreateSQLite(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Put(context.Background(), "B0329+54", 26.7641); err != nil {
		t.Fatal(err)
	}
	db.Close()

	tests := []struct {
		name   string
		file   string
		db     string
		psrcat string
		wantOK bool
		level  string
		substr string
	}{
		{"table ok", table, "", "", true, "success", "sources in"},
		{"database ok", "", dbPath, "", true, "success", "Catalogue database"},
		{"missing table", filepath.Join(dir, "nope.yaml"), "", "", false, "error", "Catalogue table"},
		{"missing database", "", filepath.Join(dir, "nope.sqlite"), "", false, "error", "Catalogue database"},
		{"nothing configured", "", "", "", true, "warn", "No DM catalogue"},
		{"psrcat missing only warns", "", "", filepath.Join(dir, "psrcat"), true, "warn", "psrcat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.CatalogFile, cfg.CatalogDB, cfg.Psrcat = tt.file, tt.db, tt.psrcat
			log := newMockLogger()
			if got := checkCatalog(context.Background(), &cfg, log); got != tt.wantOK {
				t.Errorf("checkCatalog = %v, want %v (%v)", got, tt.wantOK, log.lines)
			}
			if !log.has(tt.level, tt.substr) {
				t.Errorf("no %s line containing %q: %v", tt.level, tt.substr, log.lines)
			}
		})
	}
}

func TestCheckDeps(t *testing.T) {
	cfg := config.DefaultConfig()
	if err := CheckDeps(&cfg); err != nil {
		t.Fatalf("CheckDeps: %v", err)
	}
	cfg.FileLocking = true
	if err := CheckDeps(&cfg); err != nil {
		t.Fatalf("CheckDeps with file locking: %v", err)
	}
}

func TestEncodeSmoke(t *testing.T) {
	n, err := encodeSmoke()
	if err != nil {
		t.Fatal(err)
	}
	if n <= 0 {
		t.Errorf("encoded %d bytes", n)
	}
}
