// Package lint runs clang-tidy over the project's sources using the compile database in the
// build directory.
package lint

import (
	"context"
	"errors"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"

	"github.com/apetor56/vulkan-engine/pkg"
	"github.com/apetor56/vulkan-engine/pkg/buildsys"
)

// DefaultPatterns select the files linted when no files are passed explicitly
var DefaultPatterns = []string{"**/*.cpp", "**/*.hpp"}

// Options for a lint run. Relative paths are resolved against ProjectRoot.
type Options struct {
	ProjectRoot string
	BuildDir    string
	SourceDir   string
	ClangTidy   string
	ConfigFile  string
	// Patterns are globs relative to SourceDir, DefaultPatterns if empty
	Patterns []string
	// Files replaces the pattern search if set
	Files []string
	// Each runs clang-tidy once per file instead of once for all files
	Each bool
	// Progress receives the progress bar in Each mode
	Progress io.Writer
}

func (o Options) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(o.ProjectRoot, path)
}

// Run lints the selected files. In Each mode all files are processed and the first failure
// is returned at the end.
func Run(ctx context.Context, runner buildsys.Runner, opts Options) error {
	logger := buildsys.Log(ctx)

	files := opts.Files
	if len(files) == 0 {
		patterns := opts.Patterns
		if len(patterns) == 0 {
			patterns = DefaultPatterns
		}

		var err error
		files, err = ResolvePatterns(opts.ProjectRoot, opts.abs(opts.SourceDir), patterns)
		if err != nil {
			return err
		}
	}

	if len(files) == 0 {
		return eris.Errorf("no files to lint in %s", opts.abs(opts.SourceDir))
	}

	buildDir := opts.abs(opts.BuildDir)
	compileDB := filepath.Join(buildDir, "compile_commands.json")
	_, err := os.Stat(compileDB)
	if err != nil {
		if !eris.Is(err, os.ErrNotExist) {
			return eris.Wrapf(err, "Failed to check %s", compileDB)
		}
		logger.Warn().
			Str("task", "lint").
			Str("path", compileDB).
			Msgf("%s is missing; only Makefile and Ninja generators write it", compileDB)
	}

	base := []string{opts.ClangTidy, "--config-file", opts.abs(opts.ConfigFile), "-p", buildDir}

	pkg.PrintTask("Running clang-tidy. It could take a while")
	if !opts.Each {
		argv := append(base, files...)
		logger.Info().Str("task", "lint").Bool("command", true).Msg(buildsys.FormatCommand(argv))
		return runner.Run(ctx, opts.ProjectRoot, argv)
	}

	bar := newProgressBar(opts.Progress, len(files))
	var firstErr error
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		argv := append(append([]string{}, base...), file)
		logger.Debug().Str("task", "lint").Bool("command", true).Msg(buildsys.FormatCommand(argv))

		err := runner.Run(ctx, opts.ProjectRoot, argv)
		if err != nil {
			var toolErr *buildsys.ToolError
			if !errors.As(err, &toolErr) {
				return err
			}

			logger.Error().Str("task", "lint").Str("path", file).Msg("clang-tidy reported problems")
			if firstErr == nil {
				firstErr = err
			}
		}

		_ = bar.Add(1)
	}
	_ = bar.Finish()

	return firstErr
}

func newProgressBar(out io.Writer, total int) *progressbar.ProgressBar {
	if out == nil || os.Getenv("CI") == "true" {
		return progressbar.NewOptions(total, progressbar.OptionSetVisibility(false))
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("clang-tidy"),
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			io.WriteString(out, "\n")
		}),
	)
}

// ResolvePatterns expands globstar patterns below dir and returns the matching files sorted
// and relative to root. Directories and duplicates are dropped.
func ResolvePatterns(root, dir string, patterns []string) ([]string, error) {
	cfg := expand.Config{
		ReadDir:  ioutil.ReadDir,
		GlobStar: true,
	}

	quotedDir, err := syntax.Quote(filepath.ToSlash(dir), syntax.LangBash)
	if err != nil {
		return nil, eris.Wrapf(err, "Cannot use %s as source directory", dir)
	}

	parser := syntax.NewParser()
	seen := map[string]bool{}
	result := []string{}

	for _, pattern := range patterns {
		item := quotedDir + "/" + filepath.ToSlash(pattern)

		words := make([]*syntax.Word, 0)
		err := parser.Words(strings.NewReader(item), func(w *syntax.Word) bool {
			words = append(words, w)
			return true
		})
		if err != nil {
			return nil, eris.Wrapf(err, "Failed to parse pattern %s", pattern)
		}

		matches, err := expand.Fields(&cfg, words...)
		if err != nil {
			return nil, eris.Wrapf(err, "Failed to resolve pattern %s", pattern)
		}

		for _, match := range matches {
			// If a pattern didn't match anything, it's returned as a result. Skip those results.
			if strings.Contains(match, "*") {
				continue
			}

			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}

			relPath, err := filepath.Rel(root, filepath.FromSlash(match))
			if err != nil {
				relPath = match
			}

			if !seen[relPath] {
				seen[relPath] = true
				result = append(result, relPath)
			}
		}
	}

	sort.Strings(result)
	return result, nil
}
