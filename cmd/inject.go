package cmd

import (
	"fmt"

	"github.com/Ripper55555/psximager/internal/diag"
	"github.com/Ripper55555/psximager/internal/inject"
	"github.com/spf13/cobra"
)

var injectCmd = &cobra.Command{
	Use:   "inject <input.cue> <repl_path> <new_file>",
	Short: "Replace one file's contents inside an existing image in place",
	Long: `Replace the contents of a single file inside an existing BIN/CUE
image in place, without rebuilding. repl_path is the file's path inside
the ISO 9660 filesystem (slash-separated, case-insensitive); new_file is
a host file whose contents must fit within the sectors already
allocated to repl_path.

Example:
  psximager inject game.cue SOUND/BGM01.XA new_bgm01.xa`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 3 {
			return fmt.Errorf("%w: inject takes exactly 3 positional arguments, got %d", errUsage, len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		version, _ := cmd.Flags().GetBool("version")
		if version {
			fmt.Println("psximager inject")
			return nil
		}

		verbose, _ := cmd.Flags().GetBool("verbose")
		diag.SetVerboseMode(verbose)

		cuePath, replPath, newFilePath := args[0], args[1], args[2]
		if err := inject.Replace(cuePath, replPath, newFilePath); err != nil {
			return err
		}
		diag.LogInfo("injected %q into %q (%q)", newFilePath, replPath, cuePath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(injectCmd)

	injectCmd.Flags().BoolP("verbose", "v", false, "enable verbose diagnostic output")
	injectCmd.Flags().BoolP("version", "V", false, "print version information")
	injectCmd.Flags().BoolP("help", "?", false, "show help for inject")
}
