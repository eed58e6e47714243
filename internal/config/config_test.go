package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"anonpipe/internal/testsupport"
)

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anonpipe.toml")
	testsupport.WriteFile(t, path, []byte(`
[paths]
base_dir = "`+filepath.Join(dir, "data")+`"

[pipeline]
incoming_cool_down_minutes = 1
finished_cool_down_minutes = 60

[[streams]]
name = "project1"
output_folder = "`+filepath.Join(dir, "out")+`"
profile = "basic"
`))

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %s, exists = %v", resolved, exists)
	}
	if cfg.IncomingCoolDown() != time.Minute {
		t.Fatalf("incoming cool down = %s", cfg.IncomingCoolDown())
	}
	if cfg.FinishedCoolDown() != time.Hour {
		t.Fatalf("finished cool down = %s", cfg.FinishedCoolDown())
	}
	// Defaults survive a partial file.
	if cfg.TickInterval() != time.Minute {
		t.Fatalf("tick interval = %s", cfg.TickInterval())
	}
	if cfg.StagesDir() != filepath.Join(dir, "data", "stages") {
		t.Fatalf("stages dir = %s", cfg.StagesDir())
	}
}

func TestLoadRequiresBaseDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anonpipe.toml")
	testsupport.WriteFile(t, path, []byte(`
[[streams]]
name = "project1"
output_folder = "/out"
profile = "basic"
`))

	if _, _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "base_dir") {
		t.Fatalf("err = %v, want base_dir problem", err)
	}
}

func TestValidateRejectsBadStreams(t *testing.T) {
	cfg := Default()
	cfg.Paths.BaseDir = "/data"
	cfg.Streams = []Stream{
		{Name: "project1", OutputFolder: "/out", Profile: "basic"},
		{Name: "project1", OutputFolder: "/out2", Profile: "basic"},
		{Name: "a/b", OutputFolder: "/out3", Profile: "basic"},
		{Name: "empty-output", Profile: "basic"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{"duplicate stream name", "path separators", "output_folder"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestValidateRejectsUnknownLogFormat(t *testing.T) {
	cfg := Default()
	cfg.Paths.BaseDir = "/data"
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation failure for logging.format")
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Fatal("sample config not found by Load")
	}
	if len(cfg.Streams) == 0 || len(cfg.Quarantines) == 0 {
		t.Fatalf("sample config should document streams and quarantines, got %+v", cfg)
	}
}
