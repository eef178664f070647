package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/open-edge-platform/firmware-selector/internal/ospackage"
	"github.com/open-edge-platform/firmware-selector/internal/selection"
	"github.com/open-edge-platform/firmware-selector/internal/utils/logger"
)

const testPackages = `Package: luci
Version: 25
Architecture: all
Filename: luci_25_all.ipk
Depends: luci-base, uhttpd (>= 2023)

Package: luci-base
Version: 25
Architecture: all
Filename: luci-base_25_all.ipk
Depends: libc, lua, luci

Package: uhttpd
Version: 2023
Architecture: x86_64
Filename: uhttpd_2023_x86_64.ipk
Depends: libubox
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestFeedsCommand(t *testing.T) {
	out, err := runRoot(t, "feeds", "--target", "x86/64", "--kernel", "6.6.73-1-abc", "24.10.0", "x86_64")
	if err != nil {
		t.Fatalf("feeds: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 feeds, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[5], "/releases/24.10.0/targets/x86/64/kmods/6.6.73-1-abc/Packages") {
		t.Errorf("unexpected kmods line %q", lines[5])
	}

	if _, err := runRoot(t, "feeds", "--kernel", "bogus", "24.10.0", "x86_64"); err == nil {
		t.Error("expected error for malformed kernel")
	}
}

func TestFeedNameFromFile(t *testing.T) {
	tests := map[string]string{
		"/tmp/base-Packages.gz":         "base",
		"kmods-packages.adb":            "kmods",
		"Packages":                      "",
		"/var/cache/telephony-Packages": "telephony",
	}
	for file, want := range tests {
		if got := feedNameFromFile(file); got != want {
			t.Errorf("%s: expected %q, got %q", file, want, got)
		}
	}
}

func TestIndexCommand(t *testing.T) {
	file := writeFile(t, t.TempDir(), "luci-Packages", testPackages)

	out, err := runRoot(t, "index", file)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if !strings.Contains(out, "luci-base 25 all depends: lua, luci") {
		t.Errorf("unexpected text output:\n%s", out)
	}

	out, err = runRoot(t, "index", "--format", "json", "--feed", "custom", file)
	if err != nil {
		t.Fatalf("index json: %v", err)
	}
	var pkgs []ospackage.PackageInfo
	if err := json.Unmarshal([]byte(out), &pkgs); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(pkgs) != 3 || pkgs[0].Feed != "custom" {
		t.Errorf("unexpected records %+v", pkgs)
	}

	if _, err := runRoot(t, "index", "--format", "xml", file); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestDepsCommands(t *testing.T) {
	file := writeFile(t, t.TempDir(), "luci-Packages", testPackages)

	out, err := runRoot(t, "deps", "--index", file, "luci")
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	if got := strings.Fields(out); strings.Join(got, " ") != "luci-base uhttpd lua libubox" {
		t.Errorf("unexpected expansion %v", got)
	}

	out, err = runRoot(t, "deps", "--direct", "--index", file, "luci")
	if err != nil {
		t.Fatalf("deps --direct: %v", err)
	}
	if !strings.Contains(out, "uhttpd>=2023") {
		t.Errorf("expected constraint in output:\n%s", out)
	}

	out, err = runRoot(t, "rdeps", "--index", file, "luci")
	if err != nil {
		t.Fatalf("rdeps: %v", err)
	}
	if strings.TrimSpace(out) != "luci-base" {
		t.Errorf("expected luci-base, got %q", out)
	}

	if _, err := runRoot(t, "deps", "--index", file, "missing"); err == nil {
		t.Error("expected error for unknown package")
	}
}

func TestBuildListCommand(t *testing.T) {
	out, err := runRoot(t, "build-list", "--defaults", "a,b", "--toggle", "a", "--toggle", "c")
	if err != nil {
		t.Fatalf("build-list: %v", err)
	}
	if got := strings.TrimSpace(out); got != "b c -a" {
		t.Errorf("expected \"b c -a\", got %q", got)
	}

	saved := filepath.Join(t.TempDir(), "selection.json")
	if _, err := runRoot(t, "build-list", "--defaults", "a,b", "--remove", "b", "--add", "d", "--save", saved); err != nil {
		t.Fatalf("build-list --save: %v", err)
	}
	s, err := selection.LoadSnapshot(saved)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if strings.Join(s.AddedPackages, ",") != "d" || strings.Join(s.RemovedPackages, ",") != "b" {
		t.Errorf("unexpected snapshot %+v", s)
	}

	out, err = runRoot(t, "build-list", "--defaults", "a,b", "--snapshot", saved, "--restore", "b")
	if err != nil {
		t.Fatalf("build-list --snapshot: %v", err)
	}
	if got := strings.TrimSpace(out); got != "a b d" {
		t.Errorf("expected \"a b d\", got %q", got)
	}

	if _, err := runRoot(t, "build-list"); err == nil {
		t.Error("expected error without defaults")
	}
}

const testProfiles = `{
  "arch_packages": "x86_64",
  "default_packages": ["base-files", "dropbear"],
  "linux_kernel": {"version": "6.6.73", "release": "1", "vermagic": "abc"},
  "profiles": {"generic": {"device_packages": ["-dropbear", "kmod-e1000"]}}
}`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/releases/24.10.0/packages/x86_64/luci/Packages", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testPackages))
	})
	mux.HandleFunc("/releases/24.10.0/targets/x86/64/profiles.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testProfiles))
	})
	mux.HandleFunc("/releases/24.10.0/targets/x86/64/kmods/6.6.73-1-abc/Packages", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Package: kmod-e1000\nVersion: 6.6.73-r1\nArchitecture: x86_64\nFilename: kmod-e1000.ipk\n"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, dir, url string) string {
	t.Helper()
	return writeFile(t, dir, "config.yml", "downloads_url: "+url+"\nworkers: 2\ntimeout: 5s\nlogging:\n  level: error\n")
}

func TestLoadCommand(t *testing.T) {
	srv := newFeedServer(t)
	dir := t.TempDir()
	cfg := writeConfig(t, dir, srv.URL)
	reports := filepath.Join(dir, "reports")

	out, err := runRoot(t, "load", "--config", cfg, "--no-progress", "--target", "x86/64", "--report", reports, "24.10.0", "x86_64")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, want := range []string{"luci       loaded  3 packages", "kmods      loaded  1 packages", "base       error", "total: 4 packages"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	entries, err := os.ReadDir(reports)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one report file, got %v (%v)", entries, err)
	}

	out, err = runRoot(t, "load", "--config", cfg, "--no-progress", "--format", "json", "24.10.0", "x86_64")
	if err != nil {
		t.Fatalf("load json: %v", err)
	}
	var payload struct {
		Feeds    []map[string]any `json:"feeds"`
		Packages int              `json:"packages"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(payload.Feeds) != 4 || payload.Packages != 3 {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestBuildListFromProfile(t *testing.T) {
	srv := newFeedServer(t)
	cfg := writeConfig(t, t.TempDir(), srv.URL)

	out, err := runRoot(t, "build-list", "--config", cfg, "--version", "24.10.0", "--target", "x86/64", "--profile", "generic", "--toggle", "base-files")
	if err != nil {
		t.Fatalf("build-list: %v", err)
	}
	if got := strings.TrimSpace(out); got != "kmod-e1000 -base-files" {
		t.Errorf("expected \"kmod-e1000 -base-files\", got %q", got)
	}
}

func TestDownloadCommand(t *testing.T) {
	srv := newFeedServer(t)
	dir := t.TempDir()
	cfg := writeConfig(t, dir, srv.URL)
	dest := filepath.Join(dir, "indexes")

	// base, packages and telephony are missing on the test server
	if _, err := runRoot(t, "download", "--config", cfg, "--dest", dest, "24.10.0", "x86_64"); err == nil {
		t.Fatal("expected error for missing feeds")
	}
	if _, err := os.Stat(filepath.Join(dest, "luci-Packages")); err != nil {
		t.Errorf("expected luci index to be stored: %v", err)
	}
}

func TestLoadCommandWithProgressBar(t *testing.T) {
	srv := newFeedServer(t)
	cfg := writeFile(t, t.TempDir(), "config.yml", "downloads_url: "+srv.URL+"\nworkers: 6\nlogging:\n  level: error\n")

	for i := 0; i < 3; i++ {
		out, err := runRoot(t, "load", "--config", cfg, "--target", "x86/64", "24.10.0", "x86_64")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if !strings.Contains(out, "total: 4 packages") {
			t.Errorf("unexpected output:\n%s", out)
		}
	}
}

func TestRemovePackageWarnings(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	prev := logger.Logger()
	logger.Init(zap.New(core).Sugar())
	t.Cleanup(func() { logger.Init(prev) })

	m := selection.NewMachine([]string{"a", "b"})
	m.Add("c")

	tests := []struct {
		name      string
		pkg       string
		wantState selection.State
		wantWarn  bool
	}{
		{"default is removed", "a", selection.Removed, false},
		{"added package is dropped", "c", selection.Unset, false},
		{"unknown package", "zzz", selection.Unset, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := logs.Len()
			removePackage(m, tt.pkg)
			if got := m.State(tt.pkg); got != tt.wantState {
				t.Errorf("expected state %s, got %s", tt.wantState, got)
			}
			if warned := logs.Len() > before; warned != tt.wantWarn {
				t.Errorf("expected warning %v, got %v", tt.wantWarn, warned)
			}
		})
	}
}
