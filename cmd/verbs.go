package cmd

import (
	"github.com/spf13/cobra"

	"github.com/apetor56/vulkan-engine/pkg/buildsys"
)

func verbCommand(verb buildsys.Verb, short, long string, passArgs bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   verb.String(),
		Short: short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return current.manager.Dispatch(cmd.Context(), buildsys.Request{Verb: verb, Args: args})
		},
	}

	if passArgs {
		cmd.Use += " [-- cmake args...]"
		cmd.Args = cobra.ArbitraryArgs
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(
		verbCommand(buildsys.VerbConfigure, "Configure the project with a CMake preset",
			`Shows the available presets (see CMakePresets.json) and configures the project with the
selected one. Refuses to run if the build directory already exists; run clean first to pick
another preset.`, true),
		verbCommand(buildsys.VerbBuild, "Build the project",
			`Builds the project. If it hasn't been configured yet, asks for a preset and configures it first.`, true),
		verbCommand(buildsys.VerbClean, "Remove the entire build directory",
			`Removes the build directory. Succeeds if it doesn't exist.`, false),
		verbCommand(buildsys.VerbRebuild, "Rebuild only the project's own targets",
			`Removes the project's compiled artifacts from the build directory and builds again. CMake's
cache and the external dependencies built alongside the project are kept.`, true),
	)
}
