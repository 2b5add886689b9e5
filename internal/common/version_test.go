package common

import (
	"strings"
	"testing"
)

func TestApplyVersionFile_FillsDefaultsOnly(t *testing.T) {
	origV, origB, origC := Version, Build, GitCommit
	t.Cleanup(func() { Version, Build, GitCommit = origV, origB, origC })

	Version, Build, GitCommit = "dev", "2024-06-03", "unknown"
	applyVersionFile(strings.NewReader(`
# written by the release script
version: 1.4.0
build: 2025-01-01
Commit : abc1234
garbage line
`))

	if Version != "1.4.0" {
		t.Errorf("Version = %q, want 1.4.0", Version)
	}
	if Build != "2024-06-03" {
		t.Errorf("Build set by ldflags should win, got %q", Build)
	}
	if GitCommit != "abc1234" {
		t.Errorf("GitCommit = %q, want abc1234", GitCommit)
	}
}

func TestBuildInfo_String(t *testing.T) {
	info := BuildInfo{Name: "advisor", Version: "1.0.0", Build: "b", GitCommit: "c"}
	if got := info.String(); got != "advisor 1.0.0 (build b, commit c)" {
		t.Errorf("String() = %q", got)
	}
}

func TestWriteBanner_ReportsSettings(t *testing.T) {
	config := NewDefaultConfig()
	config.Engine.MaxItems = 7
	config.Server.RateLimit = 0

	var sb strings.Builder
	writeBanner(&sb, config)
	out := sb.String()

	for _, want := range []string{"Max items", "7", "Rate limit", "off", "Renderer", "template", config.Data.MarketPath} {
		if !strings.Contains(out, want) {
			t.Errorf("banner missing %q", want)
		}
	}
}
