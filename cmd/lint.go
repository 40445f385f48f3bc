package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/apetor56/vulkan-engine/pkg/buildsys"
	"github.com/apetor56/vulkan-engine/pkg/lint"
)

var lintCmd = &cobra.Command{
	Use:   "lint [files...]",
	Short: "Run clang-tidy over the sources",
	Long: `Runs clang-tidy with the project's .clang-tidy config and the compile database from the
build directory. Without arguments every .cpp and .hpp file in the source directory is checked.
Only the Makefile and Ninja generators write the compile database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		each, err := cmd.Flags().GetBool("each")
		if err != nil {
			return err
		}

		cfg := current.cfg
		return lint.Run(cmd.Context(), buildsys.NewShellRunner(), lint.Options{
			ProjectRoot: current.root,
			BuildDir:    current.manager.BuildDir(),
			SourceDir:   cfg.SourceDir,
			ClangTidy:   cfg.ClangTidy,
			ConfigFile:  cfg.TidyConfig,
			Files:       args,
			Each:        each,
			Progress:    os.Stderr,
		})
	},
}

func init() {
	lintCmd.Flags().BoolP("each", "e", false, "run clang-tidy once per file and show progress")
	rootCmd.AddCommand(lintCmd)
}
