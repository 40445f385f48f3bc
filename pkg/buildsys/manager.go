package buildsys

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/apetor56/vulkan-engine/pkg"
	"github.com/apetor56/vulkan-engine/pkg/config"
	"github.com/apetor56/vulkan-engine/pkg/presets"
)

// Selector picks the preset for a fresh build directory
type Selector interface {
	PromptForPreset() (presets.Entry, error)
}

// Options describes the project layout
type Options struct {
	ProjectRoot string
	// BuildDir is relative to ProjectRoot unless absolute
	BuildDir string
	// ArtifactDir is the subtree of BuildDir that rebuild removes
	ArtifactDir string
	CMake       string
	// Prog is the name used in messages that tell the operator what to run next
	Prog string
}

// Manager owns the build directory lifecycle
type Manager struct {
	root        string
	buildDir    string
	artifactDir string
	cmake       string
	prog        string
	runner      Runner
	selector    Selector
	now         func() time.Time
}

// NewManager checks the options and returns a manager using the given collaborators
func NewManager(opts Options, runner Runner, selector Selector) (*Manager, error) {
	root, err := filepath.Abs(opts.ProjectRoot)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to resolve project root %s", opts.ProjectRoot)
	}

	if opts.BuildDir == "" {
		return nil, eris.New("build directory is not set")
	}

	buildDir := opts.BuildDir
	if !filepath.IsAbs(buildDir) {
		buildDir = filepath.Join(root, buildDir)
	}
	buildDir = filepath.Clean(buildDir)

	if buildDir == root {
		return nil, eris.New("build directory must not be the project root")
	}

	err = config.ValidateSubtree(opts.ArtifactDir)
	if err != nil {
		return nil, eris.Wrap(err, "invalid artifact directory")
	}

	cmake := opts.CMake
	if cmake == "" {
		cmake = "cmake"
	}

	prog := opts.Prog
	if prog == "" {
		prog = "projmgr"
	}

	return &Manager{
		root:        root,
		buildDir:    buildDir,
		artifactDir: filepath.Join(buildDir, opts.ArtifactDir),
		cmake:       cmake,
		prog:        prog,
		runner:      runner,
		selector:    selector,
		now:         time.Now,
	}, nil
}

// BuildDir returns the absolute path of the build directory
func (m *Manager) BuildDir() string {
	return m.buildDir
}

// ProjectRoot returns the absolute path of the project root
func (m *Manager) ProjectRoot() string {
	return m.root
}

// State checks whether the build directory exists
func (m *Manager) State() (State, error) {
	info, err := os.Stat(m.buildDir)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return Unconfigured, nil
		}
		return Unconfigured, eris.Wrapf(err, "Failed to check %s", m.buildDir)
	}

	if !info.IsDir() {
		return Unconfigured, eris.Errorf("%s exists but is not a directory", m.buildDir)
	}

	return Configured, nil
}

// Configure asks for a preset and runs the CMake configure step. It refuses to run if the
// build directory already exists.
func (m *Manager) Configure(ctx context.Context, args []string) error {
	state, err := m.State()
	if err != nil {
		return err
	}

	if state == Configured {
		log(ctx).Warn().Str("task", "configure").Str("path", m.buildDir).Msg("build directory already exists")
		pkg.PrintError("Configuration is already selected. To select a new configuration run:")
		pkg.PrintSubtask(m.prog + " clean")
		pkg.PrintSubtask(m.prog + " configure")
		return ErrAlreadyConfigured
	}

	entry, err := m.selector.PromptForPreset()
	if err != nil {
		if eris.Is(err, presets.ErrInvalidSelection) {
			pkg.PrintError("Invalid selection. Please run " + m.prog + " again and select a valid option.")
		}
		return err
	}

	log(ctx).Debug().Str("task", "configure").Msgf("selected %s (%s, %s)", entry.Preset, entry.Generator, entry.Compiler)
	pkg.PrintTask("Configuring with preset " + entry.Preset)

	argv := append([]string{m.cmake, "-S", m.root, "--preset", entry.Preset}, args...)
	err = m.run(ctx, "configure", argv)
	if err != nil {
		return err
	}

	state, err = m.State()
	if err != nil {
		return err
	}

	if state != Configured {
		log(ctx).Warn().
			Str("task", "configure").
			Str("path", m.buildDir).
			Msgf("preset %s did not create %s, check its binaryDir", entry.Preset, m.buildDir)
		return nil
	}

	err = writeMarker(m.buildDir, Marker{
		Selector:     entry.Selector,
		Generator:    entry.Generator,
		Compiler:     entry.Compiler,
		Preset:       entry.Preset,
		ConfiguredAt: m.now().UTC().Truncate(time.Second),
	})
	if err != nil {
		log(ctx).Warn().Str("task", "configure").Err(err).Msg("could not record the selected preset")
	}

	return nil
}

// Build runs the CMake build step, configuring the project first if necessary
func (m *Manager) Build(ctx context.Context, args []string) error {
	state, err := m.State()
	if err != nil {
		return err
	}

	if state == Unconfigured {
		log(ctx).Info().Str("task", "build").Msg("project is not configured yet")
		err = m.Configure(ctx, nil)
		if err != nil {
			return err
		}
	}

	pkg.PrintTask("Building")
	argv := append([]string{m.cmake, "--build", m.buildDir}, args...)
	return m.run(ctx, "build", argv)
}

// Clean removes the build directory. A missing directory is not an error.
func (m *Manager) Clean(ctx context.Context) error {
	pkg.PrintTask("Removing " + m.rel(m.buildDir))
	log(ctx).Debug().Str("task", "clean").Str("path", m.buildDir).Msg("remove " + m.buildDir)

	err := os.RemoveAll(m.buildDir)
	if err != nil {
		return eris.Wrapf(err, "Could not delete %s", m.buildDir)
	}

	return nil
}

// Rebuild removes the project's own artifacts from the build directory and builds again. The
// rest of the build directory, including CMake's cache, is kept.
func (m *Manager) Rebuild(ctx context.Context, args []string) error {
	state, err := m.State()
	if err != nil {
		return err
	}

	if state == Configured {
		pkg.PrintTask("Removing " + m.rel(m.artifactDir))
		log(ctx).Debug().Str("task", "rebuild").Str("path", m.artifactDir).Msg("remove " + m.artifactDir)

		err = os.RemoveAll(m.artifactDir)
		if err != nil {
			return eris.Wrapf(err, "Could not delete %s", m.artifactDir)
		}
	}

	return m.Build(ctx, args)
}

// Status reports the build directory state and the recorded preset, if any
func (m *Manager) Status(ctx context.Context) (Status, error) {
	status := Status{BuildDir: m.buildDir}

	state, err := m.State()
	if err != nil {
		return status, err
	}
	status.State = state

	if state == Configured {
		status.Marker, err = readMarker(m.buildDir)
		if err != nil {
			log(ctx).Warn().Err(err).Msg("ignoring unreadable marker")
		}
	}

	return status, nil
}

func (m *Manager) run(ctx context.Context, task string, argv []string) error {
	log(ctx).Info().
		Str("task", task).
		Bool("command", true).
		Msg(FormatCommand(argv))

	err := m.runner.Run(ctx, m.root, argv)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			return err
		}
		return eris.Wrapf(err, "%s failed", task)
	}

	return nil
}

func (m *Manager) rel(path string) string {
	relPath, err := filepath.Rel(m.root, path)
	if err != nil {
		return path
	}
	return relPath
}
