package version

import (
	"strings"
	"testing"
)

func TestResolvePrefersLinkTimeValues(t *testing.T) {
	saved := [3]string{Version, Commit, BuildTime}
	t.Cleanup(func() { Version, Commit, BuildTime = saved[0], saved[1], saved[2] })

	Version, Commit, BuildTime = "v1.2.3", "0123456789abcdef0123", "2026-01-02T03:04:05Z"
	info := Resolve()
	if info.Version != "v1.2.3" || info.Commit != Commit || info.BuildTime != BuildTime {
		t.Fatalf("unexpected info: %+v", info)
	}
	if got := String(); got != "v1.2.3 (0123456789ab)" {
		t.Fatalf("String() = %q", got)
	}
	if !strings.HasPrefix(info.GoVersion, "go") && !strings.HasPrefix(info.GoVersion, "devel") {
		t.Fatalf("unexpected go version %q", info.GoVersion)
	}
}

func TestResolveAlwaysHasVersion(t *testing.T) {
	saved := [3]string{Version, Commit, BuildTime}
	t.Cleanup(func() { Version, Commit, BuildTime = saved[0], saved[1], saved[2] })

	Version, Commit, BuildTime = "", "", ""
	if Resolve().Version == "" {
		t.Fatalf("expected a fallback version")
	}
}
