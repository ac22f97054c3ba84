package tracerx_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ninesd/tracerx"
)

func TestExecutor_ArtifactDir(t *testing.T) {
	prog := MustBuildProgram(t, "./testdata/pkg001_call")
	fn := MustFindFunction(t, prog, "caller")

	e := NewExecutor(fn)
	defer e.Close()

	if _, err := e.Run(); err != nil {
		t.Fatal(err)
	}

	if pct := e.LivePercent(); pct <= 0 {
		t.Fatalf("LivePercent()=%v, expected > 0 after Run", pct)
	}

	dir := t.TempDir()
	if err := e.ArtifactDir(dir); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"VisitedBB.txt", "LiveBB.txt", "LivePercentCov.txt", "coveredICMP.txt", "coveredAICMP.txt", "BBPlotting.txt", "spec.txt"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("%s: expected non-empty output", name)
		}
	}
}

func TestExecutor_LoadDependencyFolder(t *testing.T) {
	prog := MustBuildProgram(t, "./testdata/pkg001_call")
	fn := MustFindFunction(t, prog, "caller")

	// First pass: run to completion and capture which block orders were
	// visited so the second executor can be seeded with the same numbers -
	// buildBlockOrder assigns them statically, so they're stable across
	// separate Executor instances over the same program.
	first := NewExecutor(fn)
	if _, err := first.Run(); err != nil {
		first.Close()
		t.Fatal(err)
	}
	var visited bytes.Buffer
	if err := first.WriteVisitedBB(&visited); err != nil {
		first.Close()
		t.Fatal(err)
	}
	first.Close()

	if strings.TrimSpace(visited.String()) == "" {
		t.Fatal("expected at least one visited block order from the first run")
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "InitialVisitedBB.txt"), visited.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "SpecAvoid_0"), []byte("0\nsomeVar\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	second := tracerx.NewExecutor(fn)
	if err := second.LoadDependencyFolder(dir); err != nil {
		t.Fatal(err)
	}
	if pct := second.LivePercent(); pct <= 0 {
		t.Fatalf("LivePercent()=%v after LoadDependencyFolder, expected > 0", pct)
	}
}

func TestExecutor_LoadDependencyFolder_MissingDirIsNotError(t *testing.T) {
	prog := MustBuildProgram(t, "./testdata/pkg001_call")
	fn := MustFindFunction(t, prog, "caller")

	e := tracerx.NewExecutor(fn)
	if err := e.LoadDependencyFolder(filepath.Join(t.TempDir(), "does-not-exist")); err != nil {
		t.Fatalf("expected missing DependencyFolder to be a no-op, got %v", err)
	}
	if err := e.LoadDependencyFolder(""); err != nil {
		t.Fatalf("expected empty DependencyFolder to be a no-op, got %v", err)
	}
}
