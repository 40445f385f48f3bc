package lint

import (
	"context"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"

	"github.com/apetor56/vulkan-engine/pkg"
	"github.com/apetor56/vulkan-engine/pkg/buildsys"
)

type recordingRunner struct {
	calls  [][]string
	dirs   []string
	failOn map[string]int
	wrap   bool
}

func (r *recordingRunner) Run(ctx context.Context, dir string, argv []string) error {
	r.calls = append(r.calls, argv)
	r.dirs = append(r.dirs, dir)
	if status, ok := r.failOn[argv[len(argv)-1]]; ok {
		var err error = &buildsys.ToolError{Command: argv, Status: status}
		if r.wrap {
			err = eris.Wrap(err, "clang-tidy")
		}
		return err
	}
	return nil
}

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, file := range files {
		path := filepath.Join(root, filepath.FromSlash(file))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("int x;\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func quiet(t *testing.T) {
	prev := pkg.Output
	pkg.Output = ioutil.Discard
	t.Cleanup(func() { pkg.Output = prev })
}

func TestResolvePatterns(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"source/main.cpp",
		"source/core/Engine.cpp",
		"source/core/Engine.hpp",
		"source/core/descriptor/Pool.cpp",
		"source/utils/Common.hpp",
		"source/notes.txt",
		"include/window.hpp",
	)

	got, err := ResolvePatterns(root, filepath.Join(root, "source"), DefaultPatterns)
	if err != nil {
		t.Fatalf("ResolvePatterns: %v", err)
	}

	want := []string{
		filepath.Join("source", "core", "Engine.cpp"),
		filepath.Join("source", "core", "Engine.hpp"),
		filepath.Join("source", "core", "descriptor", "Pool.cpp"),
		filepath.Join("source", "main.cpp"),
		filepath.Join("source", "utils", "Common.hpp"),
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("ResolvePatterns() =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestResolvePatternsDeduplicates(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "src dir/a.cpp")

	got, err := ResolvePatterns(root, filepath.Join(root, "src dir"), []string{"*.cpp", "**/*.cpp"})
	if err != nil {
		t.Fatalf("ResolvePatterns: %v", err)
	}
	if len(got) != 1 || got[0] != filepath.Join("src dir", "a.cpp") {
		t.Fatalf("ResolvePatterns() = %v", got)
	}
}

func TestResolvePatternsNoMatches(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "source/readme.md")

	got, err := ResolvePatterns(root, filepath.Join(root, "source"), DefaultPatterns)
	if err != nil {
		t.Fatalf("ResolvePatterns: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("ResolvePatterns() = %v, want nothing", got)
	}
}

func baseOptions(root string) Options {
	return Options{
		ProjectRoot: root,
		BuildDir:    "build",
		SourceDir:   "source",
		ClangTidy:   "clang-tidy",
		ConfigFile:  ".clang-tidy",
	}
}

func TestRunSingleInvocation(t *testing.T) {
	quiet(t)
	root := t.TempDir()
	writeTree(t, root, "source/a.cpp", "source/b/b.hpp", "build/compile_commands.json")

	runner := &recordingRunner{}
	if err := Run(context.Background(), runner, baseOptions(root)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(runner.calls))
	}
	want := []string{
		"clang-tidy",
		"--config-file", filepath.Join(root, ".clang-tidy"),
		"-p", filepath.Join(root, "build"),
		filepath.Join("source", "a.cpp"),
		filepath.Join("source", "b", "b.hpp"),
	}
	if strings.Join(runner.calls[0], "|") != strings.Join(want, "|") {
		t.Errorf("command = %v, want %v", runner.calls[0], want)
	}
	if runner.dirs[0] != root {
		t.Errorf("ran in %s, want %s", runner.dirs[0], root)
	}
}

func TestRunExplicitFiles(t *testing.T) {
	quiet(t)
	root := t.TempDir()

	opts := baseOptions(root)
	opts.Files = []string{"source/only.cpp"}
	runner := &recordingRunner{}
	if err := Run(context.Background(), runner, opts); err != nil {
		t.Fatalf("Run: %v", err)
	}

	call := runner.calls[0]
	if call[len(call)-1] != "source/only.cpp" || len(call) != 6 {
		t.Errorf("command = %v", call)
	}
}

func TestRunNoFiles(t *testing.T) {
	quiet(t)
	root := t.TempDir()
	writeTree(t, root, "source/readme.md")

	runner := &recordingRunner{}
	if err := Run(context.Background(), runner, baseOptions(root)); err == nil {
		t.Fatal("Run succeeded without files")
	}
	if len(runner.calls) != 0 {
		t.Error("clang-tidy ran without files")
	}
}

func TestRunEachReportsFirstFailure(t *testing.T) {
	quiet(t)
	root := t.TempDir()
	writeTree(t, root, "source/a.cpp", "source/b.cpp", "source/c.cpp")

	b := filepath.Join("source", "b.cpp")
	c := filepath.Join("source", "c.cpp")
	runner := &recordingRunner{failOn: map[string]int{b: 1, c: 2}}

	opts := baseOptions(root)
	opts.Each = true
	err := Run(context.Background(), runner, opts)

	var toolErr *buildsys.ToolError
	if !errors.As(err, &toolErr) || toolErr.Status != 1 {
		t.Fatalf("Run() error = %v, want the failure for %s", err, b)
	}
	if len(runner.calls) != 3 {
		t.Errorf("got %d calls, want one per file", len(runner.calls))
	}
}

func TestRunEachStopsOnCancel(t *testing.T) {
	quiet(t)
	root := t.TempDir()
	writeTree(t, root, "source/a.cpp", "source/b.cpp")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := baseOptions(root)
	opts.Each = true
	runner := &recordingRunner{}
	if err := Run(ctx, runner, opts); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("got %d calls after cancellation", len(runner.calls))
	}
}

func TestRunEachContinuesAfterWrappedFailure(t *testing.T) {
	quiet(t)
	root := t.TempDir()
	writeTree(t, root, "source/a.cpp", "source/b.cpp")

	a := filepath.Join("source", "a.cpp")
	runner := &recordingRunner{failOn: map[string]int{a: 3}, wrap: true}

	opts := baseOptions(root)
	opts.Each = true
	err := Run(context.Background(), runner, opts)

	var toolErr *buildsys.ToolError
	if !errors.As(err, &toolErr) || toolErr.Status != 3 {
		t.Fatalf("Run() error = %v, want the failure for %s", err, a)
	}
	if len(runner.calls) != 2 {
		t.Errorf("got %d calls, want one per file", len(runner.calls))
	}
}
