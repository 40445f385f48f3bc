package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/aidarkhanov/nanoid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/apetor56/vulkan-engine/pkg"
	"github.com/apetor56/vulkan-engine/pkg/buildsys"
	"github.com/apetor56/vulkan-engine/pkg/config"
	"github.com/apetor56/vulkan-engine/pkg/presets"
)

const progName = "projmgr"

// Exit codes besides the status of a failed external tool
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// session holds everything set up for the current invocation
type session struct {
	root    string
	cfg     *config.Config
	logger  zerolog.Logger
	manager *buildsys.Manager
}

var (
	current *session
	logger  = zerolog.New(NewConsoleWriter(os.Stderr)).Level(zerolog.InfoLevel)
)

var rootCmd = &cobra.Command{
	Use:   progName + " [verb]",
	Short: "Configure, build and lint the engine with CMake presets",
	Long: `Select a CMake preset once, then configure, build, clean and rebuild the project
without remembering CMake's flags. Running it without a verb configures and builds.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return eris.Wrapf(buildsys.ErrUnknownVerb, "%q", args[0])
		}
		return nil
	},
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		return current.manager.Dispatch(cmd.Context(), buildsys.Request{Verb: buildsys.VerbNone})
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("root", "", "project root (default: nearest parent directory with CMakePresets.json)")
	flags.String("config", "", "config file (default: <root>/"+config.FileName+")")
	flags.String("log-level", "", "override the configured log level")
	flags.BoolP("verbose", "v", false, "debug logging with error traces")

	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != rootCmd {
			defaultHelp(cmd, args)
			return
		}

		out := cmd.OutOrStdout()
		buildsys.WriteUsage(out, progName)
		out.Write([]byte("\nFlags:\n" + cmd.Flags().FlagUsages()))
	})
}

func setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" {
		return nil
	}

	rootFlag, err := cmd.Flags().GetString("root")
	if err != nil {
		return err
	}

	configFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	levelFlag, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return err
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}

	root := rootFlag
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return eris.Wrap(err, "Failed to retrieve the current working directory")
		}

		root, err = pkg.GetProjectRoot(wd)
		if err != nil {
			return err
		}
	}

	root, err = filepath.Abs(root)
	if err != nil {
		return eris.Wrapf(err, "Failed to resolve %s", root)
	}

	cfg, err := config.Load(root, configFlag)
	if err != nil {
		return err
	}

	if levelFlag != "" {
		cfg.LogLevel = levelFlag
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	level := cfg.Level()
	if verbose {
		level = zerolog.DebugLevel
		setErrorFormat(true)
	}

	logger = zerolog.New(NewConsoleWriter(os.Stderr)).
		Level(level).
		With().
		Str("run", nanoid.New()).
		Logger()

	catalog, err := presets.Load(inRoot(root, cfg.PresetsFile))
	if err != nil {
		return err
	}

	manager, err := buildsys.NewManager(buildsys.Options{
		ProjectRoot: root,
		BuildDir:    cfg.BuildDir,
		ArtifactDir: cfg.ArtifactDir,
		CMake:       cfg.CMake,
		Prog:        progName,
	}, buildsys.NewShellRunner(), presets.NewPrompt(catalog, os.Stdin, pkg.Output))
	if err != nil {
		return err
	}

	current = &session{
		root:    root,
		cfg:     cfg,
		logger:  logger,
		manager: manager,
	}

	ctx := buildsys.WithLogger(cmd.Context(), &current.logger)
	cmd.SetContext(ctx)

	logger.Debug().Str("path", root).Msgf("project root %s", root)
	return nil
}

func inRoot(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// extraCommands are accepted case-insensitively next to the verbs
var extraCommands = []string{"lint", "status", "help"}

// valueFlags are the global flags that consume the following argument
var valueFlags = map[string]bool{"--root": true, "--config": true, "--log-level": true}

// normalizeArgs rewrites the verb into the spelling cobra expects: lower case and without
// the leading dashes of the older --build style. Global flags in front of the verb are
// skipped.
func normalizeArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	result := append([]string{}, args...)

	i := 0
	for i < len(result) {
		arg := result[i]
		name := arg
		if idx := strings.Index(arg, "="); idx >= 0 {
			name = arg[:idx]
		}

		if valueFlags[arg] {
			i += 2
		} else if valueFlags[name] || name == "--verbose" || arg == "-v" {
			i++
		} else {
			break
		}
	}

	if i >= len(result) {
		return result
	}

	lower := strings.ToLower(result[i])
	for _, name := range extraCommands {
		if lower == name {
			result[i] = name
			return result
		}
	}

	if lower == "-h" || lower == "--help" {
		result[i] = lower
		return result
	}

	verb, err := buildsys.ParseVerb(result[i])
	if err == nil {
		result[i] = verb.String()
	}

	return result
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var toolErr *buildsys.ToolError
	if errors.As(err, &toolErr) && toolErr.Status != 0 {
		return toolErr.Status
	}

	if eris.Is(err, buildsys.ErrUnknownVerb) {
		return ExitUsage
	}

	return ExitFailure
}

func report(err error) {
	var toolErr *buildsys.ToolError
	switch {
	case err == nil:
	case errors.As(err, &toolErr):
		logger.Error().Msgf("%s (%s)", toolErr.Error(), buildsys.FormatCommand(toolErr.Command))
	case eris.Is(err, buildsys.ErrUnknownVerb):
		pkg.PrintError("Passed unknown argument: " + err.Error())
		pkg.PrintSubtask("Run " + progName + " help to list the available verbs")
	case eris.Is(err, buildsys.ErrAlreadyConfigured), eris.Is(err, presets.ErrInvalidSelection):
		// the operator has already been told
		logger.Debug().Err(err).Msg("stopped")
	case errors.Is(err, context.Canceled):
		logger.Warn().Msg("interrupted")
	default:
		logger.Error().Err(err).Msg("failed")
	}
}

// initOutput disables colors unless stdout is a terminal
func initOutput(stdout *os.File) {
	pkg.SetColors(pkg.IsTerminal(stdout))
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initOutput(os.Stdout)
	rootCmd.SetArgs(normalizeArgs(os.Args[1:]))
	err := rootCmd.ExecuteContext(ctx)
	report(err)
	return exitCode(err)
}
