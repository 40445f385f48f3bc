package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/apetor56/vulkan-engine/pkg"
	"github.com/apetor56/vulkan-engine/pkg/buildsys"
	"github.com/apetor56/vulkan-engine/pkg/presets"
)

func TestNormalizeArgs(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{nil, nil},
		{[]string{"BUILD"}, []string{"build"}},
		{[]string{"--build", "--", "-j", "8"}, []string{"build", "--", "-j", "8"}},
		{[]string{"Configure"}, []string{"configure"}},
		{[]string{"LINT", "--each"}, []string{"lint", "--each"}},
		{[]string{"Status"}, []string{"status"}},
		{[]string{"--help"}, []string{"--help"}},
		{[]string{"-h"}, []string{"-h"}},
		{[]string{"--root", "/tmp", "build"}, []string{"--root", "/tmp", "build"}},
		{[]string{"--root", "/tmp", "REBUILD"}, []string{"--root", "/tmp", "rebuild"}},
		{[]string{"--root", "/tmp", "--build"}, []string{"--root", "/tmp", "build"}},
		{[]string{"--config=p.toml", "-v", "Clean"}, []string{"--config=p.toml", "-v", "clean"}},
		{[]string{"--log-level", "debug", "--verbose", "STATUS"}, []string{"--log-level", "debug", "--verbose", "status"}},
		{[]string{"--root", "/tmp"}, []string{"--root", "/tmp"}},
		{[]string{"-H"}, []string{"-h"}},
		{[]string{"--HELP"}, []string{"--help"}},
		{[]string{"BUILD", "--", "--target", "APP"}, []string{"build", "--", "--target", "APP"}},
		{[]string{"deploy"}, []string{"deploy"}},
	}

	for _, tt := range tests {
		got := normalizeArgs(tt.in)
		if strings.Join(got, " ") != strings.Join(tt.want, " ") {
			t.Errorf("normalizeArgs(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeArgsKeepsInput(t *testing.T) {
	in := []string{"REBUILD"}
	normalizeArgs(in)
	if in[0] != "REBUILD" {
		t.Errorf("input was modified: %q", in)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitSuccess},
		{"tool", &buildsys.ToolError{Command: []string{"cmake"}, Status: 3}, 3},
		{"tool without status", &buildsys.ToolError{Command: []string{"cmake"}}, ExitFailure},
		{"unknown verb", eris.Wrapf(buildsys.ErrUnknownVerb, "%q", "deploy"), ExitUsage},
		{"already configured", buildsys.ErrAlreadyConfigured, ExitFailure},
		{"invalid selection", eris.Wrap(presets.ErrInvalidSelection, "9"), ExitFailure},
		{"canceled", context.Canceled, ExitFailure},
		{"other", eris.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("%s: exitCode() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestConsoleWriter(t *testing.T) {
	pkg.SetColors(false)
	t.Cleanup(func() { pkg.SetColors(true) })
	t.Setenv("PROJMGR_DEBUG", "")

	var out bytes.Buffer
	log := zerolog.New(NewConsoleWriter(&out))

	log.Info().Str("task", "build").Bool("command", true).Msg("cmake --build build")
	log.Warn().Msg("careful")
	log.Error().Msg("broken")

	want := "build: $ cmake --build build\ncareful\nError: broken\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestConsoleWriterRejectsGarbage(t *testing.T) {
	w := NewConsoleWriter(&bytes.Buffer{})
	if _, err := w.Write([]byte("not json")); err == nil {
		t.Error("Write accepted a non-JSON event")
	}
}

func TestEarlyErrorsWithoutTerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "stdout"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	prev := pkg.Output
	var out bytes.Buffer
	pkg.Output = &out
	t.Cleanup(func() {
		pkg.Output = prev
		pkg.SetColors(true)
	})

	initOutput(f)
	report(eris.Wrapf(buildsys.ErrUnknownVerb, "%q", "deploy"))

	if !strings.Contains(out.String(), "deploy") {
		t.Fatalf("output = %q", out.String())
	}
	if strings.Contains(out.String(), "\x1b[") {
		t.Errorf("color codes written to a file: %q", out.String())
	}
}
